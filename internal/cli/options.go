package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/candle-hpc/upfchain/internal/config"
	"github.com/candle-hpc/upfchain/internal/orchestrator"
)

// campaignOptions holds the flags shared by run and generate.
type campaignOptions struct {
	plan         string
	nodes        int
	stages       int
	upfDir       string
	site         string
	submitScript string
	logLevel     string
}

func (o *campaignOptions) addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.plan, "plan", "plan.json", "plan data file (JSON or YAML)")
	cmd.Flags().IntVar(&o.nodes, "nodes", 1, "number of nodes to execute each stage (-1 for the plan maximum)")
	cmd.Flags().IntVar(&o.stages, "stages", 1, "number of stages to run (-1 for the plan maximum)")
	cmd.Flags().StringVar(&o.upfDir, "upf_dir", "", "the output directory for the generated upf files (env UPFCHAIN_UPF_DIR)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error (env UPFCHAIN_LOG_LEVEL)")
}

func (o *campaignOptions) addSubmitFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.site, "site", "", "the hpc site, e.g. summit (env UPFCHAIN_SITE)")
	cmd.Flags().StringVar(&o.submitScript, "submit_script", "", "the script to submit the job for each stage (env UPFCHAIN_SUBMIT_SCRIPT)")
}

// applyDefaults fills flags the user did not set from cfg.
func (o *campaignOptions) applyDefaults(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *string, value string) {
		if f := cmd.Flags().Lookup(name); f != nil && !f.Changed && value != "" {
			*dst = value
		}
	}
	set("plan", &o.plan, cfg.Plan)
	set("upf_dir", &o.upfDir, cfg.UPFDir)
	set("site", &o.site, cfg.Site)
	set("submit_script", &o.submitScript, cfg.SubmitScript)
	set("log-level", &o.logLevel, cfg.LogLevel)
}

// require returns an error naming every flag whose value is still empty.
func (o *campaignOptions) require(names ...string) error {
	values := map[string]string{
		"plan":          o.plan,
		"upf_dir":       o.upfDir,
		"site":          o.site,
		"submit_script": o.submitScript,
	}
	var missing []string
	for _, n := range names {
		if values[n] == "" {
			missing = append(missing, fmt.Sprintf("%q", n))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required flag(s) %s not set", strings.Join(missing, ", "))
	}
	return nil
}

func (o *campaignOptions) config(dryRun bool) orchestrator.Config {
	return orchestrator.Config{
		PlanPath:      o.plan,
		Nodes:         o.nodes,
		Stages:        o.stages,
		UPFDir:        o.upfDir,
		Site:          o.site,
		SubmitProgram: o.submitScript,
		DryRun:        dryRun,
	}
}

// resolve loads environment defaults and checks the required flags.
func (o *campaignOptions) resolve(cmd *cobra.Command, required ...string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	o.applyDefaults(cmd, cfg)
	return o.require(required...)
}

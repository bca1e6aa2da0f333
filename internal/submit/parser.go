package submit

import "strings"

// Parser extracts chain state from a submission program's merged output.
type Parser interface {
	Parse(output string) State
}

// Default line prefixes printed by the submission scripts.
const (
	TurbineOutputPrefix = "TURBINE_OUTPUT="
	JobIDPrefix         = "JOB_ID="
)

// PrefixParser reads key=value lines. Each line is trimmed of surrounding
// whitespace; a line starting with TurbinePrefix sets TurbineOutput and a
// line starting with JobPrefix sets JobID, the remainder of the line being
// the value. The last matching line wins. A field with no matching line is
// empty.
type PrefixParser struct {
	TurbinePrefix string
	JobPrefix     string
}

// DefaultParser understands the TURBINE_OUTPUT=/JOB_ID= contract.
var DefaultParser = PrefixParser{
	TurbinePrefix: TurbineOutputPrefix,
	JobPrefix:     JobIDPrefix,
}

// Parse implements Parser.
func (p PrefixParser) Parse(output string) State {
	var st State
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if v, ok := cut(line, p.TurbinePrefix); ok {
			st.TurbineOutput = v
		} else if v, ok := cut(line, p.JobPrefix); ok {
			st.JobID = v
		}
	}
	return st
}

// cut is strings.CutPrefix that never matches an empty prefix.
func cut(line, prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	return strings.CutPrefix(line, prefix)
}

// Package progress keeps a JSON Lines journal of chain runs next to the
// generated stage files.
package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileName is the journal file created in the UPF directory.
const FileName = "progress.log"

// Event type constants for the journal.
const (
	EventRunStarted      = "run_started"
	EventStagesGenerated = "stages_generated"
	EventStageSubmitted  = "stage_submitted"
	EventChainAborted    = "chain_aborted"
	EventChainCompleted  = "chain_completed"
)

// Event represents a single journal entry.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	RunID     string                 `json:"run_id"`
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Journal appends events for one run to a JSON Lines file.
type Journal struct {
	path  string
	runID string
}

// NewJournal creates a journal in dir with a fresh run id.
func NewJournal(dir string) *Journal {
	return &Journal{
		path:  filepath.Join(dir, FileName),
		runID: uuid.NewString(),
	}
}

// RunID returns the identifier stamped on every event of this run.
func (j *Journal) RunID() string {
	return j.runID
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Log appends an event to the journal file.
func (j *Journal) Log(event string, data map[string]interface{}) error {
	entry := Event{
		Timestamp: time.Now(),
		RunID:     j.runID,
		Event:     event,
		Data:      data,
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	jsonBytes = append(jsonBytes, '\n')

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(jsonBytes)
	return err
}

// RunStarted logs a run_started event.
func (j *Journal) RunStarted(planPath, site, root string, stages, nodes int) error {
	return j.Log(EventRunStarted, map[string]interface{}{
		"plan":   planPath,
		"site":   site,
		"root":   root,
		"stages": stages,
		"nodes":  nodes,
	})
}

// StagesGenerated logs a stages_generated event.
func (j *Journal) StagesGenerated(files []string, counts []int) error {
	return j.Log(EventStagesGenerated, map[string]interface{}{
		"files":  files,
		"counts": counts,
	})
}

// StageSubmitted logs a stage_submitted event. exitErr may be empty.
func (j *Journal) StageSubmitted(stage int, file, jobID, turbineOutput, exitErr string) error {
	data := map[string]interface{}{
		"stage":          stage,
		"file":           file,
		"job_id":         jobID,
		"turbine_output": turbineOutput,
	}
	if exitErr != "" {
		data["error"] = exitErr
	}
	return j.Log(EventStageSubmitted, data)
}

// ChainAborted logs a chain_aborted event.
func (j *Journal) ChainAborted(stage, remaining int) error {
	return j.Log(EventChainAborted, map[string]interface{}{
		"stage":     stage,
		"remaining": remaining,
	})
}

// ChainCompleted logs a chain_completed event with summary statistics.
func (j *Journal) ChainCompleted(stages int, duration time.Duration) error {
	return j.Log(EventChainCompleted, map[string]interface{}{
		"stages":      stages,
		"duration_ms": duration.Milliseconds(),
	})
}

// ReadEvents reads every event in the journal file at path.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []Event
	dec := json.NewDecoder(f)
	for dec.More() {
		var e Event
		if err := dec.Decode(&e); err != nil {
			return events, err
		}
		events = append(events, e)
	}
	return events, nil
}

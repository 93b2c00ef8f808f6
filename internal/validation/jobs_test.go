package validation

import (
	"testing"

	"github.com/altafino/schedkit/internal/types"
)

func validDef() *types.JobDefinition {
	var def types.JobDefinition
	def.Name = "nightly-backup"
	def.Enabled = true
	def.Schedule.FrequencyEvery = "day"
	def.Schedule.FrequencyAmount = 1
	def.Command.Run = "/usr/local/bin/backup.sh"
	return &def
}

func TestValidateJob(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(def *types.JobDefinition)
		wantErr bool
	}{
		{name: "valid", mutate: func(*types.JobDefinition) {}},
		{name: "missing name", mutate: func(d *types.JobDefinition) { d.Name = "" }, wantErr: true},
		{name: "bad characters in name", mutate: func(d *types.JobDefinition) { d.Name = "no spaces!" }, wantErr: true},
		{name: "bad frequency unit", mutate: func(d *types.JobDefinition) { d.Schedule.FrequencyEvery = "decade" }, wantErr: true},
		{name: "zero frequency amount", mutate: func(d *types.JobDefinition) { d.Schedule.FrequencyAmount = 0 }, wantErr: true},
		{name: "bad start time", mutate: func(d *types.JobDefinition) { d.Schedule.StartAt = "soon" }, wantErr: true},
		{name: "valid start time", mutate: func(d *types.JobDefinition) { d.Schedule.StartAt = "2026-01-02T15:04:05Z" }},
		{name: "bad stop time", mutate: func(d *types.JobDefinition) { d.Schedule.StopAt = "later" }, wantErr: true},
		{name: "missing command", mutate: func(d *types.JobDefinition) { d.Command.Run = "" }, wantErr: true},
		{name: "negative timeout", mutate: func(d *types.JobDefinition) { d.Command.Timeout = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			def := validDef()
			tt.mutate(def)
			err := ValidateJob(def)
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

package Sync

import (
	"strings"
	"testing"
	"time"

	"Gestora/Client"
)

func TestSmartTextFallback(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	gen := &SmartText{Language: "en"} // no API key, always falls back

	tests := []struct {
		name string
		task Client.Task
		want string
	}{
		{
			"overdue status",
			Client.Task{Title: "Report", Status: Client.StatusOverdue},
			"overdue",
		},
		{
			"past delivery counts as overdue",
			Client.Task{Title: "Report", Status: Client.StatusInProgress, DeliveryDate: now.Add(-time.Hour)},
			"overdue",
		},
		{
			"near deadline",
			Client.Task{Title: "Report", Status: Client.StatusInProgress, DeliveryDate: now.Add(3 * time.Hour)},
			"deadline",
		},
		{
			"in progress",
			Client.Task{Title: "Report", Status: Client.StatusInProgress, DeliveryDate: now.Add(72 * time.Hour)},
			"Keep up",
		},
		{
			"closed",
			Client.Task{Title: "Report", Status: Client.StatusClosed},
			"done",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := gen.TaskLine(tt.task, now)
			if !strings.Contains(line, tt.want) {
				t.Errorf("TaskLine = %q, want it to mention %q", line, tt.want)
			}
			if !strings.Contains(line, tt.task.Title) {
				t.Errorf("TaskLine = %q, want it to mention the title", line)
			}
		})
	}
}

func TestSmartTextPortuguese(t *testing.T) {
	gen := &SmartText{Language: "pt"}
	line := gen.TaskLine(Client.Task{Title: "Relatório", Status: Client.StatusOverdue}, time.Now())
	if !strings.Contains(line, "atrasada") {
		t.Errorf("TaskLine = %q, want a Portuguese overdue line", line)
	}
}

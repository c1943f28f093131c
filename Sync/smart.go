package Sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"Gestora/Client"
)

// SmartText generates short motivational lines about a task's state. When
// a text-generation API key is configured it asks the service; otherwise,
// or on any failure, it falls back to fixed templates. Callers never see
// an error, only text.
type SmartText struct {
	APIKey     string
	Endpoint   string
	Language   string
	HTTPClient *http.Client
}

const defaultGenerateEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

// NewSmartText builds a generator, reading GENAI_API_KEY from the
// environment when present.
func NewSmartText(language string) *SmartText {
	return &SmartText{
		APIKey:   os.Getenv("GENAI_API_KEY"),
		Endpoint: defaultGenerateEndpoint,
		Language: language,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TaskLine returns a one-liner about the task, suitable for a notification.
func (s *SmartText) TaskLine(task Client.Task, now time.Time) string {
	if s.APIKey != "" {
		if line, err := s.generate(s.prompt(task, now)); err == nil && line != "" {
			return line
		}
	}
	return s.fallback(task, now)
}

func (s *SmartText) prompt(task Client.Task, now time.Time) string {
	lang := "English"
	if s.Language == "pt" {
		lang = "Portuguese"
	}
	tone := "encouraging"
	if task.Status == Client.StatusOverdue || task.DeliveryDate.Before(now) {
		tone = "urgent but respectful"
	}
	return fmt.Sprintf(
		"Write one short %s sentence in %s, no quotes, reminding someone about the task %q which is %s and due %s.",
		tone, lang, task.Title, task.Status, task.DeliveryDate.Format("2006-01-02 15:04"))
}

// generate calls the text-generation API and pulls the first candidate's
// text out of the response.
func (s *SmartText) generate(prompt string) (string, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.6,
			"maxOutputTokens": 80,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, s.Endpoint+"?key="+s.APIKey, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text generation returned status %d", resp.StatusCode)
	}

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	candidates, ok := decoded["candidates"].([]interface{})
	if !ok || len(candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	first, ok := candidates[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected candidate shape")
	}
	content, ok := first["content"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected content shape")
	}
	parts, ok := content["parts"].([]interface{})
	if !ok || len(parts) == 0 {
		return "", fmt.Errorf("no parts in response")
	}
	part, ok := parts[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected part shape")
	}
	text, _ := part["text"].(string)
	return strings.TrimSpace(text), nil
}

// fallback picks a fixed template by task state and language.
func (s *SmartText) fallback(task Client.Task, now time.Time) string {
	pt := s.Language == "pt"
	overdue := task.Status == Client.StatusOverdue ||
		(!task.DeliveryDate.IsZero() && task.DeliveryDate.Before(now) && task.Status != Client.StatusClosed)

	if overdue {
		if pt {
			return fmt.Sprintf("A tarefa \"%s\" está atrasada. É hora de agir!", task.Title)
		}
		return fmt.Sprintf("Task \"%s\" is overdue. Time to act!", task.Title)
	}
	if !task.DeliveryDate.IsZero() && task.DeliveryDate.Sub(now) < 24*time.Hour {
		if pt {
			return fmt.Sprintf("O prazo de \"%s\" está chegando. Você consegue!", task.Title)
		}
		return fmt.Sprintf("The deadline for \"%s\" is coming up. You've got this!", task.Title)
	}

	switch task.Status {
	case Client.StatusOpen, Client.StatusToStart:
		if pt {
			return fmt.Sprintf("\"%s\" está à sua espera. Um bom começo é meio caminho andado.", task.Title)
		}
		return fmt.Sprintf("\"%s\" is waiting for you. A good start is half the work.", task.Title)
	case Client.StatusInProgress:
		if pt {
			return fmt.Sprintf("Continue o bom trabalho em \"%s\".", task.Title)
		}
		return fmt.Sprintf("Keep up the good work on \"%s\".", task.Title)
	case Client.StatusFinished:
		if pt {
			return fmt.Sprintf("\"%s\" terminou e aguarda revisão.", task.Title)
		}
		return fmt.Sprintf("\"%s\" is finished and awaiting review.", task.Title)
	case Client.StatusClosed:
		if pt {
			return fmt.Sprintf("\"%s\" foi concluída. Bom trabalho!", task.Title)
		}
		return fmt.Sprintf("\"%s\" is done. Nice work!", task.Title)
	}
	if pt {
		return fmt.Sprintf("Não se esqueça de \"%s\".", task.Title)
	}
	return fmt.Sprintf("Don't forget about \"%s\".", task.Title)
}

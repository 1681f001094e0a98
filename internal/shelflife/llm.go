package shelflife

import (
	"context"
	"errors"
)

// JSONCaller sends a prompt to a language model and decodes its JSON answer
// into out.
type JSONCaller interface {
	CallJSON(ctx context.Context, prompt string, out interface{}) error
}

type LLMCollaborator struct {
	caller JSONCaller
}

func NewLLMCollaborator(caller JSONCaller) *LLMCollaborator {
	return &LLMCollaborator{caller: caller}
}

const estimatePrompt = "Estimate edible shelf-life days (integer) for the given ingredient under common home storage. " +
	"If likely refrigerated, assume fridge; if pantry-stable (rice/oil/canned, etc.), return longer days. " +
	`Output a JSON object only: {"days": <integer>, "reason": "<short reason>"}. Item: `

func (c *LLMCollaborator) EstimateDays(ctx context.Context, name string) (int, error) {
	var resp struct {
		Days   *int   `json:"days"`
		Reason string `json:"reason"`
	}
	if err := c.caller.CallJSON(ctx, estimatePrompt+name, &resp); err != nil {
		return 0, err
	}
	if resp.Days == nil {
		return 0, errors.New("model answer has no days")
	}
	return *resp.Days, nil
}

package negotiation

import (
	"fmt"
	"time"
)

type Outcome struct {
	Result     Result
	Transcript Transcript
}

// Engine считает скидки и строит транскрипт с переданными часами.
type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) Engine {
	if now == nil {
		now = time.Now
	}

	return Engine{now: now}
}

func (e Engine) Negotiate(dealTitle string, in Input) (Outcome, error) {
	now := e.now()

	result, err := Calculate(in, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("negotiation.Calculate: %w", err)
	}

	return Outcome{
		Result:     result,
		Transcript: BuildTranscript(dealTitle, result, now),
	}, nil
}

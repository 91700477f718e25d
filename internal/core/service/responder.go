package service

import "context"

// DefaultStubResponse is the placeholder reply used until a real model is wired in.
const DefaultStubResponse = "This is a simulated AI response"

// StubResponder answers every prompt with the same text.
type StubResponder struct {
	reply string
}

func NewStubResponder(reply string) *StubResponder {
	if reply == "" {
		reply = DefaultStubResponse
	}
	return &StubResponder{reply: reply}
}

func (r *StubResponder) Respond(ctx context.Context, _ string, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.reply, nil
}

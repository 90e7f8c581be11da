// Package tui drives an interactive terminal walkthrough of a form: it walks
// the visible projection, prompts per field, re-evaluates visibility after
// every answer, and submits when nothing is left to ask.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/pkg/schema"
	"github.com/goliatone/go-formportal/pkg/session"
)

// Filler walks a session's visible fields until the form can be submitted.
type Filler struct {
	session *session.Session
	driver  PromptDriver
	log     *zap.Logger
}

// Option configures a Filler.
type Option func(*Filler)

// WithDriver swaps the prompt driver, mainly for tests.
func WithDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(f *Filler) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFiller constructs a Filler for the given session.
func NewFiller(sess *session.Session, opts ...Option) (*Filler, error) {
	if sess == nil {
		return nil, fmt.Errorf("tui: session is required")
	}
	f := &Filler{
		session: sess,
		driver:  NewSurveyDriver(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Run prompts for every unanswered visible field, then submits. Validation
// failures re-prompt the offending fields; submission failures are returned
// to the caller with the answer set intact.
func (f *Filler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, ok := f.nextUnanswered()
		if !ok {
			break
		}
		if err := f.ask(ctx, item); err != nil {
			return err
		}
	}
	return f.submit(ctx)
}

func (f *Filler) submit(ctx context.Context) error {
	for {
		err := f.session.Submit(ctx)
		if err == nil {
			return f.driver.Info(ctx, "Application submitted.")
		}
		verr, ok := session.AsValidationError(err)
		if !ok {
			return err
		}
		f.log.Debug("validation failed", zap.Int("fields", len(verr.Fields)))
		if err := f.driver.Info(ctx, verr.Error()); err != nil {
			return err
		}
		if err := f.reprompt(ctx, verr); err != nil {
			return err
		}
	}
}

func (f *Filler) reprompt(ctx context.Context, verr *session.ValidationError) error {
	for _, item := range flatten(f.session.Render()) {
		if _, invalid := verr.Fields[item.Field.ID]; !invalid {
			continue
		}
		if err := f.ask(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) ask(ctx context.Context, item session.RenderItem) error {
	value, err := f.prompt(ctx, item)
	if err != nil {
		return err
	}
	if err := f.session.SetAnswer(ctx, item.Field.ID, value); err != nil {
		return err
	}
	// Dependent option lookups must settle before the next field renders.
	f.session.Wait()
	return nil
}

func (f *Filler) nextUnanswered() (session.RenderItem, bool) {
	for _, item := range flatten(f.session.Render()) {
		if _, answered := f.session.Answer(item.Field.ID); !answered {
			return item, true
		}
	}
	return session.RenderItem{}, false
}

func (f *Filler) prompt(ctx context.Context, item session.RenderItem) (any, error) {
	field := item.Field
	message := field.Label
	if message == "" {
		message = field.ID
	}
	if field.Required {
		message += " (required)"
	}

	switch field.Kind {
	case schema.FieldKindSelect, schema.FieldKindRadio:
		if len(item.Options) == 0 {
			return nil, fmt.Errorf("%w: field %q has no options", ErrNoChoice, field.ID)
		}
		idx, err := f.driver.Select(ctx, SelectConfig{Message: message, Options: item.Options})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(item.Options) {
			return nil, fmt.Errorf("%w: field %q", ErrNoChoice, field.ID)
		}
		return item.Options[idx], nil
	case schema.FieldKindCheckbox:
		// A checkbox with declared options is a multi-value group; without
		// options it is a single yes/no toggle.
		if len(item.Options) > 0 {
			indices, err := f.driver.MultiSelect(ctx, SelectConfig{Message: message, Options: item.Options})
			if err != nil {
				return nil, err
			}
			return valuesFromIndices(item.Options, indices), nil
		}
		return f.driver.Confirm(ctx, ConfirmConfig{Message: message})
	case schema.FieldKindNumber:
		return f.driver.Input(ctx, InputConfig{
			Message:   message,
			Validator: numberValidator(field),
		})
	default:
		return f.driver.Input(ctx, InputConfig{Message: message})
	}
}

func numberValidator(field schema.Field) func(string) error {
	return func(raw string) error {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Errorf("%s must be a number", field.ID)
		}
		return nil
	}
}

func flatten(items []session.RenderItem) []session.RenderItem {
	out := make([]session.RenderItem, 0, len(items))
	for _, item := range items {
		if len(item.Members) > 0 {
			out = append(out, item.Members...)
			continue
		}
		out = append(out, item)
	}
	return out
}

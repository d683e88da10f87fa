package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/core"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/uischema"
)

// FieldKind selects how a schema field is asked.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldTextArea
	FieldNumber
	FieldBoolean
	FieldSelect
	FieldMultiSelect
)

// Question asks for the value of one schema field.
//
// Answers are strings for text, textarea and number fields, a bool for
// booleans, the chosen option value for selects and a []string of option
// values for multi selects.
type Question struct {
	Key      string
	Kind     FieldKind
	Label    string
	Help     string
	Default  any
	Options  []uischema.Option
	// Validate checks an answer against the field's validation block. Drivers
	// may use it to reprompt in place; Fill checks every answer again.
	Validate func(answer any) error
}

// PromptDriver abstracts the terminal so fill logic can be tested without a
// real TTY.
type PromptDriver interface {
	Ask(ctx context.Context, q Question) (any, error)
	// Notify shows a section title or a validation message.
	Notify(ctx context.Context, msg string) error
}

// SurveyDriver prompts through github.com/AlecAivazis/survey.
type SurveyDriver struct {
	out      io.Writer
	pageSize int
}

// NewSurveyDriver returns a driver writing notices to stdout.
func NewSurveyDriver() *SurveyDriver {
	return &SurveyDriver{out: os.Stdout, pageSize: 12}
}

// Ask implements PromptDriver.
func (d *SurveyDriver) Ask(ctx context.Context, q Question) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var opts []survey.AskOpt
	if q.Validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			return q.Validate(answerFromSurvey(q, ans))
		}))
	}

	switch q.Kind {
	case FieldBoolean:
		var out bool
		prompt := &survey.Confirm{Message: q.Label, Help: q.Help, Default: definition.Truthy(q.Default)}
		if err := survey.AskOne(prompt, &out, opts...); err != nil {
			return nil, translateSurveyErr(err)
		}
		return out, nil

	case FieldSelect:
		labels := optionLabels(q.Options)
		prompt := &survey.Select{Message: q.Label, Help: q.Help, Options: labels, PageSize: d.pageSize}
		if idx := indexOfValue(q.Options, answerString(q.Default)); idx >= 0 {
			prompt.Default = labels[idx]
		}
		var out string
		if err := survey.AskOne(prompt, &out, opts...); err != nil {
			return nil, translateSurveyErr(err)
		}
		if idx := indexOf(labels, out); idx >= 0 {
			return q.Options[idx].Value, nil
		}
		return "", nil

	case FieldMultiSelect:
		labels := optionLabels(q.Options)
		prompt := &survey.MultiSelect{Message: q.Label, Help: q.Help, Options: labels, PageSize: d.pageSize}
		var defaults []string
		for _, value := range answerList(q.Default) {
			if idx := indexOfValue(q.Options, value); idx >= 0 {
				defaults = append(defaults, labels[idx])
			}
		}
		if len(defaults) > 0 {
			prompt.Default = defaults
		}
		var out []string
		if err := survey.AskOne(prompt, &out, opts...); err != nil {
			return nil, translateSurveyErr(err)
		}
		values := make([]string, 0, len(out))
		for _, label := range out {
			if idx := indexOf(labels, label); idx >= 0 {
				values = append(values, q.Options[idx].Value)
			}
		}
		return values, nil

	case FieldTextArea:
		var out string
		prompt := &survey.Multiline{Message: q.Label, Help: q.Help, Default: answerString(q.Default)}
		if err := survey.AskOne(prompt, &out, opts...); err != nil {
			return nil, translateSurveyErr(err)
		}
		return out, nil

	default:
		var out string
		prompt := &survey.Input{Message: q.Label, Help: q.Help, Default: answerString(q.Default)}
		if err := survey.AskOne(prompt, &out, opts...); err != nil {
			return nil, translateSurveyErr(err)
		}
		return out, nil
	}
}

// Notify implements PromptDriver.
func (d *SurveyDriver) Notify(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := d.out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintln(out, msg)
	return err
}

// answerFromSurvey maps what survey hands to validators onto Question answers.
func answerFromSurvey(q Question, ans interface{}) any {
	switch typed := ans.(type) {
	case core.OptionAnswer:
		if typed.Index >= 0 && typed.Index < len(q.Options) {
			return q.Options[typed.Index].Value
		}
		return ""
	case []core.OptionAnswer:
		values := make([]string, 0, len(typed))
		for _, option := range typed {
			if option.Index >= 0 && option.Index < len(q.Options) {
				values = append(values, q.Options[option.Index].Value)
			}
		}
		return values
	default:
		return ans
	}
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

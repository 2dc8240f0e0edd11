// Package prompt provides interactive terminal prompts for the
// fileshared CLI, adapted from the teacher's internal/cli/prompt
// package and trimmed to what the user subcommands need: a masked
// password prompt with confirmation and a yes/no confirmation.
package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return ErrAborted
	}
	return err
}

// InputRequired prompts for non-empty text input.
func InputRequired(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if input == "" {
				return fmt.Errorf("required")
			}
			return nil
		},
	}
	result, err := p.Run()
	return result, wrapError(err)
}

// Password prompts for a masked password input.
func Password(label string) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*'}
	result, err := p.Run()
	return result, wrapError(err)
}

// PasswordWithConfirmation prompts for a new password twice and
// returns an error if the two entries don't match.
func PasswordWithConfirmation(label string, minLength int) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) < minLength {
				return fmt.Errorf("password must be at least %d characters", minLength)
			}
			return nil
		},
	}
	password, err := p.Run()
	if err != nil {
		return "", wrapError(err)
	}

	confirm, err := Password("Confirm password")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// Confirm prompts for a yes/no confirmation, defaulting to no.
func Confirm(label string) (bool, error) {
	p := promptui.Prompt{Label: fmt.Sprintf("%s [y/N]", label), IsConfirm: true}
	_, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, wrapError(err)
	}
	return true, nil
}

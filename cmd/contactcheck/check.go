// cmd/contactcheck/check.go
//
// The check command: decode a values file, validate it with the service's
// rules and messages, and print the result.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yanizio/contactform/internal/form"
)

// errInvalid signals invalid values; the errors were already printed.
var errInvalid = errors.New("values are invalid")

func checkCmd() *cobra.Command {
	var (
		messagesFile string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "contactcheck <values-file>",
		Short: "Validate contact form values",
		Long: `contactcheck validates a YAML or JSON file of contact form values
with the same rules and messages the contact service uses.

Examples:
  contactcheck values.yaml
  contactcheck --messages conf/messages.yaml values.json
  contactcheck --json values.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), args[0], messagesFile, asJSON)
		},
	}

	cmd.Flags().StringVarP(&messagesFile, "messages", "m", "", "YAML message catalog overriding the stock messages")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

type result struct {
	Valid  bool              `json:"valid"`
	Errors []form.ErrorField `json:"errors"`
}

func runCheck(out io.Writer, valuesFile, messagesFile string, asJSON bool) error {
	msgs, err := form.LoadMessages(messagesFile)
	if err != nil {
		return err
	}

	values, err := readValues(valuesFile)
	if err != nil {
		return err
	}

	errs := form.NewValidator(msgs).Validate(values)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result{Valid: errs.Valid(), Errors: errs.List()}); err != nil {
			return err
		}
	} else if errs.Valid() {
		fmt.Fprintln(out, "✓ values are valid")
	} else {
		for _, e := range errs.List() {
			fmt.Fprintf(out, "✗ %-10s %-10s %s\n", e.Name, e.Kind, e.Message)
		}
	}

	if !errs.Valid() {
		return errInvalid
	}
	return nil
}

// readValues decodes a YAML (or JSON) mapping of field names to values.
// Scalars such as an unquoted zip code decode as their literal text; null,
// lists, and nested mappings count as empty.
func readValues(path string) (form.Values, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return form.Values{}, fmt.Errorf("read values %s: %w", path, err)
	}
	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &nodes); err != nil {
		return form.Values{}, fmt.Errorf("parse values %s: %w", path, err)
	}

	m := make(map[string]any, len(nodes))
	for name, n := range nodes {
		if n.Kind == yaml.ScalarNode && n.Tag != "!!null" {
			m[name] = n.Value
		}
	}
	return form.FromMap(m), nil
}

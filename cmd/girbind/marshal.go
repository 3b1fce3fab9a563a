package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/girbind"
	"github.com/jward/girbind/internal/config"
	"github.com/jward/girbind/internal/marshal"
)

var flagHandle string

var marshalCmd = &cobra.Command{
	Use:   "marshal <namespace> <native-name> [path...]",
	Short: "Show the marshaling decisions for a callable",
	Long:  "Loads and resolves every document, then selects both directions for every parameter and the return value of the callable with the given C symbol.",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMarshal,
}

func init() {
	addDocumentFlags(marshalCmd)
	marshalCmd.Flags().StringVar(&flagHandle, "handle", "", "handle wrapping for values arriving on the managed side: safe-handle|raw-pointer")
}

func runMarshal(cmd *cobra.Command, args []string) error {
	namespace, native := args[0], args[1]

	p, err := loadProject(args[2:])
	if err != nil {
		return outputError("marshal", err)
	}
	if flagHandle != "" {
		p.handle = flagHandle
	}
	h, err := parseHandle(p.handle)
	if err != nil {
		return outputError("marshal", err)
	}

	e, err := newEngine(cmd.Context(), p)
	if err != nil {
		return outputError("marshal", err)
	}
	defer e.Close()

	desc, err := e.Describe(namespace, native, h)
	if err != nil {
		return outputError("marshal", err)
	}
	return outputResult(CLIResult{
		Command: "marshal",
		Results: descriptionToCLI(namespace, desc),
	})
}

// parseHandle maps a handle name to the marshaling preference.
func parseHandle(name string) (girbind.Handle, error) {
	switch name {
	case "", config.HandleSafe:
		return girbind.SafeHandle, nil
	case config.HandleRaw:
		return girbind.RawPointer, nil
	default:
		return 0, fmt.Errorf("invalid handle %q: must be %s or %s", name, config.HandleSafe, config.HandleRaw)
	}
}

func descriptionToCLI(namespace string, d *girbind.Description) CLIDescription {
	out := CLIDescription{
		Namespace:  namespace,
		Name:       d.Callable.Name,
		NativeName: d.Callable.NativeName,
		Throws:     d.Callable.Throws,
		Parameters: make([]CLIValue, 0, len(d.Parameters)),
	}
	for _, p := range d.Parameters {
		out.Parameters = append(out.Parameters, valueToCLI(p))
	}
	if d.Return != nil {
		ret := valueToCLI(*d.Return)
		out.Return = &ret
	}
	out.Placeholders = len(d.Placeholders())
	return out
}

func valueToCLI(v marshal.ValueDecisions) CLIValue {
	return CLIValue{
		Name:      v.Name,
		Attribute: v.Attribute,
		ToNative:  decisionToCLI(v.ToNative),
		ToManaged: decisionToCLI(v.ToManaged),
	}
}

func decisionToCLI(d girbind.Decision) CLIDecision {
	return CLIDecision{
		Rule:                 d.Rule,
		Strategy:             d.Strategy.String(),
		Expr:                 d.Expr,
		OwnershipTransferred: d.OwnershipTransferred,
		RetainRequired:       d.RetainRequired(),
		Placeholder:          d.Placeholder,
		ElementWise:          d.ElementWise,
	}
}

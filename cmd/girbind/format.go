package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// formatRepositoriesText formats CLIRepository results as aligned columns.
func formatRepositoriesText(w io.Writer, repos []CLIRepository) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAMESPACE\tLIBRARY\tTYPES\tCALLABLES\tREFS\tEXTERNAL")
	for _, r := range repos {
		fmt.Fprintf(tw, "%s-%s\t%s\t%d\t%d\t%d\t%d\n",
			r.Name, r.Version, r.SharedLibrary, r.Types, r.Callables, r.References, r.External)
	}
	tw.Flush()
}

// formatNamespacesText formats CLINamespace results as aligned columns.
func formatNamespacesText(w io.Writer, nss []CLINamespace) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAMESPACE\tSYMBOLS\tCALLABLES\tINCLUDES")
	for _, n := range nss {
		fmt.Fprintf(tw, "%s-%s\t%d\t%d\t%s\n",
			n.Name, n.Version, n.SymbolCount, n.CallableCount, strings.Join(n.Includes, ","))
	}
	tw.Flush()
}

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAMESPACE\tNAME\tKIND\tCTYPE\tREFS")
	for _, s := range syms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			s.ID, s.Namespace, s.Name, s.Kind, s.CType, s.RefCount)
	}
	tw.Flush()
}

// formatReferencesText formats CLIReference results as aligned columns.
func formatReferencesText(w io.Writer, refs []CLIReference) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tNAME\tBINDING\tTARGET\tKIND")
	for _, r := range refs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.From, r.Name, r.Binding, qualified(r.TargetNamespace, r.TargetName), r.TargetKind)
	}
	tw.Flush()
}

// formatSymbolDetailText formats CLISymbolDetail as readable text.
func formatSymbolDetailText(w io.Writer, d CLISymbolDetail) {
	fmt.Fprintf(w, "%s %s", d.Symbol.Kind, qualified(d.Symbol.Namespace, d.Symbol.Name))
	if d.Symbol.CType != "" {
		fmt.Fprintf(w, " (%s)", d.Symbol.CType)
	}
	fmt.Fprintln(w)

	for _, r := range d.Relations {
		fmt.Fprintf(w, "  %s %s [%s]\n", r.Kind, qualified(r.Reference.TargetNamespace, r.Reference.TargetName), r.Reference.Binding)
	}

	if len(d.Members) > 0 {
		fmt.Fprintln(w, "\nMembers:")
		for _, m := range d.Members {
			fmt.Fprintf(w, "  %s = %d\n", m.CIdentifier, m.Value)
		}
	}

	if len(d.TypeMembers) > 0 {
		fmt.Fprintln(w, "\nFields and properties:")
		for _, tm := range d.TypeMembers {
			fmt.Fprintf(w, "  %s %s\n", tm.Kind, tm.Name)
		}
	}

	if len(d.Callables) > 0 {
		fmt.Fprintln(w, "\nCallables:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, c := range d.Callables {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Kind, c.Name, c.NativeName)
		}
		tw.Flush()
	}
}

// formatCallableDetailText formats CLICallableDetail as readable text.
func formatCallableDetailText(w io.Writer, d CLICallableDetail) {
	fmt.Fprintf(w, "%s %s (%s) in %s\n", d.Callable.Kind, d.Callable.Name, d.Callable.NativeName, d.Namespace)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  PARAM\tTYPE\tTRANSFER\tTO NATIVE\tTO MANAGED")
	for _, p := range d.Parameters {
		typ := ""
		if p.Type != nil {
			typ = qualified(p.Type.TargetNamespace, p.Type.TargetName)
		}
		var toNative, toManaged string
		for _, dec := range p.Decisions {
			s := recordedStrategy(dec)
			if dec.Direction == "to-managed" {
				toManaged = s
			} else {
				toNative = s
			}
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", p.Name, typ, p.Transfer, toNative, toManaged)
	}
	tw.Flush()
}

func recordedStrategy(d CLIRecordedDecision) string {
	switch {
	case d.Error != "":
		return "unsupported"
	case d.Placeholder:
		return d.Strategy + " (FIXME)"
	default:
		return d.Strategy
	}
}

// formatHierarchyText formats CLIHierarchy as readable text.
func formatHierarchyText(w io.Writer, h CLIHierarchy) {
	fmt.Fprintf(w, "%s %s\n", h.Symbol.Kind, qualified(h.Symbol.Namespace, h.Symbol.Name))
	section := func(title string, rels []CLITypeRelation) {
		if len(rels) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s:\n", title)
		for _, r := range rels {
			fmt.Fprintf(w, "  %s (%s)\n", qualified(r.Symbol.Namespace, r.Symbol.Name), r.Kind)
		}
	}
	section("Ancestors", h.Ancestors)
	section("Implements", h.Implements)
	section("Subtypes", h.Subtypes)
	section("Implemented by", h.ImplementedBy)
}

// formatGraphText formats CLIGraph as namespaces followed by edges.
func formatGraphText(w io.Writer, g CLIGraph) {
	formatNamespacesText(w, g.Namespaces)
	if len(g.Edges) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tTO\tREFS")
	for _, e := range g.Edges {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.From, e.To, e.References)
	}
	tw.Flush()
}

// formatPlaceholdersText formats CLIPlaceholder results as aligned columns.
func formatPlaceholdersText(w io.Writer, ps []CLIPlaceholder) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAMESPACE\tCALLABLE\tPARAM\tDIRECTION\tSTRATEGY")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Namespace, p.NativeName, p.Parameter, p.Direction, p.Strategy)
	}
	tw.Flush()
}

// formatDescriptionText formats CLIDescription as one line per value and
// direction.
func formatDescriptionText(w io.Writer, d CLIDescription) {
	fmt.Fprintf(w, "%s (%s) in %s\n", d.Name, d.NativeName, d.Namespace)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  VALUE\tDIRECTION\tSTRATEGY\tEXPR")
	line := func(v CLIValue) {
		for _, dir := range []struct {
			name string
			dec  CLIDecision
		}{{"to-native", v.ToNative}, {"to-managed", v.ToManaged}} {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", v.Name, dir.name, dir.dec.Strategy, dir.dec.Expr)
		}
	}
	for _, p := range d.Parameters {
		line(p)
	}
	if d.Return != nil {
		line(*d.Return)
	}
	tw.Flush()
	if d.Placeholders > 0 {
		fmt.Fprintf(w, "\n%d placeholder decision(s) need follow-up\n", d.Placeholders)
	}
}

// formatStringsText prints one value per line.
func formatStringsText(w io.Writer, values []string) {
	for _, v := range values {
		fmt.Fprintln(w, v)
	}
}

// formatCyclesText prints each cycle as an arrow-joined chain.
func formatCyclesText(w io.Writer, cycles [][]string) {
	for _, c := range cycles {
		fmt.Fprintln(w, strings.Join(c, " -> "))
	}
}

func qualified(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []CLIRepository:
		formatRepositoriesText(w, v)
	case []CLINamespace:
		formatNamespacesText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLIReference:
		formatReferencesText(w, v)
	case CLISymbolDetail:
		formatSymbolDetailText(w, v)
	case CLICallableDetail:
		formatCallableDetailText(w, v)
	case CLIHierarchy:
		formatHierarchyText(w, v)
	case CLIGraph:
		formatGraphText(w, v)
	case []CLIPlaceholder:
		formatPlaceholdersText(w, v)
	case CLIDescription:
		formatDescriptionText(w, v)
	case []string:
		formatStringsText(w, v)
	case [][]string:
		formatCyclesText(w, v)
	case nil:
		// No output for nil results (e.g., symbol with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}

	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIRepository:
		return len(r)
	case []CLINamespace:
		return len(r)
	case []CLISymbol:
		return len(r)
	case []CLIReference:
		return len(r)
	case []CLIPlaceholder:
		return len(r)
	case []string:
		return len(r)
	case [][]string:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/girbind"
	"github.com/jward/girbind/internal/store"
)

var (
	flagLimit  int
	flagOffset int
	flagSort   string
	flagOrder  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the binding index",
	Long:  "Run queries against an indexed set of namespaces. Symbols are addressed as <namespace> <name>, callables by their C symbol.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	queryCmd.PersistentFlags().StringVar(&flagSort, "sort", "", "sort field: name|kind|namespace|ref_count|external_ref_count")
	queryCmd.PersistentFlags().StringVar(&flagOrder, "order", "asc", "sort order: asc|desc")

	queryCmd.AddCommand(namespacesCmd)
	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(symbolCmd)
	queryCmd.AddCommand(callableCmd)
	queryCmd.AddCommand(hierarchyCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(graphCmd)
	queryCmd.AddCommand(dependentsCmd)
	queryCmd.AddCommand(impactCmd)
	queryCmd.AddCommand(cyclesCmd)
	queryCmd.AddCommand(placeholdersCmd)
	queryCmd.AddCommand(danglingCmd)
}

// --- Helpers ---

// openStore opens the Store from --config, --db or the default path.
func openStore() (*store.Store, error) {
	dbPath, err := queryDBPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'girbind index' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

func queryDBPath() (string, error) {
	if flagConfig != "" {
		p, err := projectFromConfig(flagConfig)
		if err != nil {
			return "", err
		}
		return p.dbPath, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}
	return resolveDBPath(findRepoRoot(cwd)), nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() girbind.Pagination {
	return girbind.Pagination{
		Limit:  flagLimit,
		Offset: flagOffset,
	}
}

// buildSort creates a Sort from CLI flags.
func buildSort() girbind.Sort {
	var field girbind.SortField
	switch flagSort {
	case "kind":
		field = girbind.SortByKind
	case "namespace":
		field = girbind.SortByNamespace
	case "ref_count":
		field = girbind.SortByRefCount
	case "external_ref_count":
		field = girbind.SortByExternalRefCount
	default:
		field = girbind.SortByName
	}

	var order girbind.SortOrder
	switch flagOrder {
	case "desc":
		order = girbind.Desc
	default:
		order = girbind.Asc
	}

	return girbind.Sort{Field: field, Order: order}
}

// buildSymbolFilter creates a SymbolFilter from the --kind and --namespace
// flags of cmd.
func buildSymbolFilter(cmd *cobra.Command) girbind.SymbolFilter {
	var filter girbind.SymbolFilter
	if kinds, _ := cmd.Flags().GetString("kind"); kinds != "" {
		for _, k := range strings.Split(kinds, ",") {
			if k = strings.TrimSpace(k); k != "" {
				filter.Kinds = append(filter.Kinds, k)
			}
		}
	}
	if ns, _ := cmd.Flags().GetString("namespace"); ns != "" {
		filter.Namespace = &ns
	}
	return filter
}

func addSymbolFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("kind", "", "comma-separated kind filter (e.g. class,interface)")
	cmd.Flags().String("namespace", "", "restrict to one namespace")
}

// namespaceNames maps namespace IDs to names for reference output.
func namespaceNames(qb *girbind.QueryBuilder) (map[int64]string, error) {
	nss, err := qb.Namespaces()
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(nss))
	for _, ns := range nss {
		names[ns.ID] = ns.Name
	}
	return names, nil
}

// --- Listing Commands ---

var namespacesCmd = &cobra.Command{
	Use:   "namespaces",
	Short: "List indexed namespaces",
	Args:  cobra.NoArgs,
	RunE:  runNamespaces,
}

func runNamespaces(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("namespaces", err)
	}
	defer s.Close()

	g, err := girbind.NewQueryBuilder(s).NamespaceGraph()
	if err != nil {
		return outputError("namespaces", err)
	}
	nss := graphToCLI(g).Namespaces
	count := len(nss)
	return outputResult(CLIResult{
		Command:    "namespaces",
		Results:    nss,
		TotalCount: &count,
	})
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List symbols with optional filters",
	Args:  cobra.NoArgs,
	RunE:  runSymbols,
}

func init() {
	addSymbolFilterFlags(symbolsCmd)
}

func runSymbols(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("symbols", err)
	}
	defer s.Close()

	result, err := girbind.NewQueryBuilder(s).Symbols(buildSymbolFilter(cmd), buildSort(), buildPagination())
	if err != nil {
		return outputError("symbols", err)
	}
	return outputResult(CLIResult{
		Command:    "symbols",
		Results:    symbolResultsToCLI(result.Items),
		TotalCount: &result.TotalCount,
	})
}

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search symbols by name (* matches any run of characters)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	addSymbolFilterFlags(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("search", err)
	}
	defer s.Close()

	result, err := girbind.NewQueryBuilder(s).SearchSymbols(args[0], buildSymbolFilter(cmd), buildSort(), buildPagination())
	if err != nil {
		return outputError("search", err)
	}
	return outputResult(CLIResult{
		Command:    "search",
		Results:    symbolResultsToCLI(result.Items),
		TotalCount: &result.TotalCount,
	})
}

// --- Symbol Commands ---

var symbolCmd = &cobra.Command{
	Use:   "symbol <namespace> <name>",
	Short: "Show a symbol with its members, relations and callables",
	Args:  cobra.ExactArgs(2),
	RunE:  runSymbol,
}

func runSymbol(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("symbol", err)
	}
	defer s.Close()

	d, err := girbind.NewQueryBuilder(s).SymbolDetail(args[0], args[1])
	if err != nil {
		return outputError("symbol", err)
	}
	if d == nil {
		return outputResult(CLIResult{Command: "symbol", Results: nil})
	}
	one := 1
	return outputResult(CLIResult{
		Command:    "symbol",
		Results:    symbolDetailToCLI(d),
		TotalCount: &one,
	})
}

var callableCmd = &cobra.Command{
	Use:   "callable <native-name>",
	Short: "Show a callable with its parameters and recorded decisions",
	Args:  cobra.ExactArgs(1),
	RunE:  runCallable,
}

func runCallable(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("callable", err)
	}
	defer s.Close()

	d, err := girbind.NewQueryBuilder(s).CallableDetail(args[0])
	if err != nil {
		return outputError("callable", err)
	}
	if d == nil {
		return outputResult(CLIResult{Command: "callable", Results: nil})
	}
	one := 1
	return outputResult(CLIResult{
		Command:    "callable",
		Results:    callableDetailToCLI(d),
		TotalCount: &one,
	})
}

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <namespace> <name>",
	Short: "Show ancestors, interfaces and subtypes of a class or interface",
	Args:  cobra.ExactArgs(2),
	RunE:  runHierarchy,
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("hierarchy", err)
	}
	defer s.Close()

	h, err := girbind.NewQueryBuilder(s).TypeHierarchy(args[0], args[1])
	if err != nil {
		return outputError("hierarchy", err)
	}
	if h == nil {
		return outputResult(CLIResult{Command: "hierarchy", Results: nil})
	}
	return outputResult(CLIResult{
		Command: "hierarchy",
		Results: hierarchyToCLI(h),
	})
}

var referencesCmd = &cobra.Command{
	Use:   "references <namespace> <name>",
	Short: "Find every type reference bound to a symbol",
	Args:  cobra.ExactArgs(2),
	RunE:  runReferences,
}

func runReferences(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("references", err)
	}
	defer s.Close()

	qb := girbind.NewQueryBuilder(s)
	refs, err := qb.ReferencesTo(args[0], args[1])
	if err != nil {
		return outputError("references", err)
	}
	names, err := namespaceNames(qb)
	if err != nil {
		return outputError("references", err)
	}
	out := make([]CLIReference, len(refs))
	for i, ref := range refs {
		out[i] = referenceToCLI(ref, names[ref.NamespaceID])
	}
	count := len(out)
	return outputResult(CLIResult{
		Command:    "references",
		Results:    out,
		TotalCount: &count,
	})
}

// --- Namespace Graph Commands ---

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the namespace dependency graph",
	Args:  cobra.NoArgs,
	RunE:  runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("graph", err)
	}
	defer s.Close()

	g, err := girbind.NewQueryBuilder(s).NamespaceGraph()
	if err != nil {
		return outputError("graph", err)
	}
	return outputResult(CLIResult{
		Command: "graph",
		Results: graphToCLI(g),
	})
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <namespace>",
	Short: "List namespaces that reference a namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  runDependents,
}

func runDependents(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("dependents", err)
	}
	defer s.Close()

	deps, err := girbind.NewQueryBuilder(s).Dependents(args[0])
	if err != nil {
		return outputError("dependents", err)
	}
	count := len(deps)
	return outputResult(CLIResult{
		Command:    "dependents",
		Results:    deps,
		TotalCount: &count,
	})
}

var impactCmd = &cobra.Command{
	Use:   "impact <namespace> <name>",
	Short: "List namespaces bound to a symbol through external references",
	Args:  cobra.ExactArgs(2),
	RunE:  runImpact,
}

func runImpact(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("impact", err)
	}
	defer s.Close()

	names, err := girbind.NewQueryBuilder(s).Impact(args[0], args[1])
	if err != nil {
		return outputError("impact", err)
	}
	count := len(names)
	return outputResult(CLIResult{
		Command:    "impact",
		Results:    names,
		TotalCount: &count,
	})
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Find circular dependencies between namespaces",
	Args:  cobra.NoArgs,
	RunE:  runCycles,
}

func runCycles(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("cycles", err)
	}
	defer s.Close()

	cycles, err := girbind.NewQueryBuilder(s).CircularDependencies()
	if err != nil {
		return outputError("cycles", err)
	}
	count := len(cycles)
	return outputResult(CLIResult{
		Command:    "cycles",
		Results:    cycles,
		TotalCount: &count,
	})
}

// --- Marshaling Gap Commands ---

var placeholdersCmd = &cobra.Command{
	Use:   "placeholders",
	Short: "List marshaling decisions that need manual follow-up",
	Long:  "Lists placeholder decisions recorded at index time. With --unsupported, lists conversions that have no strategy at all.",
	Args:  cobra.NoArgs,
	RunE:  runPlaceholders,
}

func init() {
	placeholdersCmd.Flags().Bool("unsupported", false, "list unsupported conversions instead of placeholders")
}

func runPlaceholders(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("placeholders", err)
	}
	defer s.Close()

	unsupported, _ := cmd.Flags().GetBool("unsupported")
	ps, err := girbind.NewQueryBuilder(s).Placeholders(unsupported)
	if err != nil {
		return outputError("placeholders", err)
	}
	out := placeholdersToCLI(ps)
	count := len(out)
	return outputResult(CLIResult{
		Command:    "placeholders",
		Results:    out,
		TotalCount: &count,
	})
}

var danglingCmd = &cobra.Command{
	Use:   "dangling",
	Short: "List references into namespaces that are not indexed",
	Args:  cobra.NoArgs,
	RunE:  runDangling,
}

func runDangling(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("dangling", err)
	}
	defer s.Close()

	refs, err := s.DanglingReferences()
	if err != nil {
		return outputError("dangling", err)
	}
	names, err := namespaceNames(girbind.NewQueryBuilder(s))
	if err != nil {
		return outputError("dangling", err)
	}
	out := make([]CLIReference, len(refs))
	for i, ref := range refs {
		out[i] = referenceToCLI(ref, names[ref.NamespaceID])
	}
	count := len(out)
	return outputResult(CLIResult{
		Command:    "dangling",
		Results:    out,
		TotalCount: &count,
	})
}

// procdog lists operating-system processes as a tree with configurable,
// dynamically sized columns.
package main

import (
	"os"

	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/spf13/cobra"

	"procdog/internal/columns"
	"procdog/internal/config"
	"procdog/internal/idname"
	"procdog/internal/procfs"
	"procdog/internal/proctree"
	"procdog/internal/render"
	"procdog/internal/selection"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "procdog",
	Short: "List processes as a tree with configurable columns",
	Long: `procdog scans the proc filesystem once and prints the process hierarchy
as a table. Columns are chosen with -o/-a and sized to their widest value
across the whole tree. The displayed set can be narrowed by exclusion terms,
a depth limit, a predicate expression, or search-with-context, which keeps
matches together with their ancestors and descendants.`,
	Args:         cobra.NoArgs,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	f := rootCmd.Flags()
	f.BoolVarP(&cfg.ListProcesses, "list-processes", "l", false, "print a flat listing before the tree")
	f.BoolVarP(&cfg.CommandLine, "command-line", "c", false, "show the full command line in the cmd column")
	f.BoolVarP(&cfg.Threads, "threads", "t", false, "enumerate threads instead of processes")
	f.StringSliceVarP(&cfg.Output, "output", "o", nil, "ordered column identifiers to display (default pid,cmd)")
	f.StringSliceVarP(&cfg.Additional, "add", "a", nil, "column identifiers to prepend before the -o list")
	f.StringVar(&cfg.VSZUnit, "vsz-unit", string(columns.UnitMiB), "unit for the vsz column (B, KiB, MiB, GiB, TiB)")
	f.StringVar(&cfg.RSSUnit, "rss-unit", string(columns.UnitMiB), "unit for the rss column (B, KiB, MiB, GiB, TiB)")
	f.IntVarP(&cfg.CmdWidth, "width", "w", 0, "truncate the cmd column to this many characters (0 = unlimited)")
	f.BoolVarP(&cfg.ResolveIDs, "names", "n", false, "resolve uid/gid columns to names")
	f.StringArrayVarP(&cfg.Search, "search", "S", nil, "search term (pid or name), keeps matches with ancestors and descendants; repeatable")
	f.StringArrayVarP(&cfg.Exclude, "exclude", "E", nil, "exclusion term (pid or name); repeatable")
	f.IntVarP(&cfg.DepthLimit, "depth", "D", config.UnlimitedDepth, "exclude nodes deeper than this depth")
	f.StringVar(&cfg.Where, "where", "", "predicate expression over pid/ppid/name/status/vsz/rss/nthr")
	f.StringVar(&cfg.ProcRoot, "proc", procfs.DefaultRoot, "proc filesystem root to scan")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logger.NewLogger("procdog")

	// Everything that can fail by configuration fails here, before the scan.
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := columns.Options{
		CommandLine: cfg.CommandLine,
		CmdWidth:    cfg.CmdWidth,
		ResolveIDs:  cfg.ResolveIDs,
	}
	opts.VSZUnit, _ = columns.ParseUnit(cfg.VSZUnit)
	opts.RSSUnit, _ = columns.ParseUnit(cfg.RSSUnit)

	if cfg.ResolveIDs {
		var err error
		if opts.Users, err = idname.LoadUsers(idname.UsersPath); err != nil {
			return err
		}
		if opts.Groups, err = idname.LoadGroups(idname.GroupsPath); err != nil {
			return err
		}
	}

	cols, err := columns.Build(cfg.ColumnIDs(), opts)
	if err != nil {
		return err
	}

	engine, err := selection.NewEngine(selection.Options{
		ExcludeTerms: cfg.Exclude,
		SearchTerms:  cfg.Search,
		DepthLimit:   cfg.DepthLimit,
		Where:        cfg.Where,
	}, log)
	if err != nil {
		return err
	}

	records, err := procfs.New(cfg.ProcRoot, cfg.Threads, log).Snapshot()
	if err != nil {
		return err
	}

	forest := proctree.Build(records)
	engine.Apply(forest)

	sink := render.NewWriterSink(os.Stdout)
	if cfg.ListProcesses {
		if err := render.List(forest, sink); err != nil {
			return err
		}
	}
	return render.NewTable(cols).Render(forest, sink)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/bellman/internal/bellman"
	"github.com/san-kum/bellman/internal/config"
	"github.com/san-kum/bellman/internal/experiment"
	"github.com/san-kum/bellman/internal/export"
	"github.com/san-kum/bellman/internal/optim"
	"github.com/san-kum/bellman/internal/storage"
	"github.com/san-kum/bellman/internal/viz"
)

var (
	dataDir    string
	iterations int
	tolerance  float64
	sparse     bool
	verify     bool
	verifyTol  float64
	discount   float64
	initValue  float64
	nx         int
	ny         int
	output     string
	configFile string
	preset     string
	printSol   bool
	pretty     bool
	limit      int
	showLimit  int
	annotated  bool
	noSave     bool
	gridParams []string
	objective  string
	workers    int
)

// main registers the commands and executes the root command, exiting with
// status 1 on error.
func main() {
	flag.Set("logtostderr", "true")

	rootCmd := &cobra.Command{
		Use:          "bellman",
		Short:        "value iteration for finite discounted MDPs",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// glog flags arrive through pflag; mark the go flag set parsed
			flag.CommandLine.Parse(nil)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".bellman", "data directory")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	solveCmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "solve a problem and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  solveProblem,
	}
	addSolveFlags(solveCmd)
	solveCmd.Flags().BoolVar(&printSol, "print", false, "print the solution table")
	solveCmd.Flags().BoolVar(&pretty, "pretty", false, "print a styled solution table")
	solveCmd.Flags().IntVar(&limit, "limit", 50, "rows shown by --pretty (0 for all)")
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	watchCmd := &cobra.Command{
		Use:   "watch [problem]",
		Short: "solve with a live progress view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchProblem,
	}
	addSolveFlags(watchCmd)
	watchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	verifyCmd := &cobra.Command{
		Use:   "verify [problem]",
		Short: "check that every transition row is a distribution",
		Args:  cobra.MaximumNArgs(1),
		RunE:  verifyProblem,
	}
	addSolveFlags(verifyCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [problem]",
		Short: "solve over a grid of parameter values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepProblem,
	}
	addSolveFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&gridParams, "param", nil, "name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&objective, "objective", optim.ObjectiveIterations, "score to minimise")
	sweepCmd.Flags().IntVar(&workers, "workers", 4, "concurrent solves")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show the solution table of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&pretty, "pretty", false, "styled table")
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "rows shown by --pretty (0 for all)")
	showCmd.Flags().BoolVar(&annotated, "annotated", false, "show the problem-specific table (gridboi)")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot convergence and values of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the residual curve of a run to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list registered problems",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range experiment.NewRegistry().ListProblems() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(solveCmd, watchCmd, verifyCmd, sweepCmd, listCmd, showCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd, problemsCmd)

	err := rootCmd.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func addSolveFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "maximum number of sweeps")
	cmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "convergence tolerance")
	cmd.Flags().BoolVar(&sparse, "sparse", true, "precompute sparse transitions")
	cmd.Flags().BoolVar(&verify, "verify", true, "verify transition distributions before solving")
	cmd.Flags().Float64Var(&verifyTol, "verify-tolerance", config.DefaultVerifyTolerance, "tolerance for --verify")
	cmd.Flags().Float64Var(&discount, "discount", 0, "override the problem's discount factor")
	cmd.Flags().Float64Var(&initValue, "init", 0, "initial value of every state")
	cmd.Flags().IntVar(&nx, "nx", config.DefaultGridX, "grid width (gridboi)")
	cmd.Flags().IntVar(&ny, "ny", config.DefaultGridY, "grid height (gridboi)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the solution table to this file")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Problem = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Problem, preset)
		if p == nil {
			return nil, errors.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Problem))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Problem = args[0]
		}
	}

	flags := cmd.Flags()
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("sparse") {
		cfg.Sparse = sparse
	}
	if flags.Changed("verify") {
		cfg.Verify = verify
	}
	if flags.Changed("verify-tolerance") {
		cfg.VerifyTolerance = verifyTol
	}
	if flags.Changed("discount") {
		d := discount
		cfg.Discount = &d
	}
	if flags.Changed("init") {
		cfg.InitialValue = initValue
	}
	if flags.Changed("nx") {
		cfg.Grid.NX = nx
	}
	if flags.Changed("ny") {
		cfg.Grid.NY = ny
	}
	if flags.Changed("output") {
		cfg.Output = output
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func solveProblem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	res, err := experiment.Solve(registry, cfg)
	if err != nil {
		return err
	}

	printReport(res)

	if err := finishRun(res); err != nil {
		return err
	}

	sol := res.Solver
	if printSol {
		if err := sol.PrintSolution(os.Stdout); err != nil {
			return err
		}
	}
	if pretty {
		namer, _ := sol.Problem().(viz.ActionNamer)
		fmt.Print(viz.RenderSolution(res.Problem, sol.Rows(), namer, limit))
	}
	return nil
}

// finishRun writes the requested output file and stores the run.
func finishRun(res *experiment.Result) error {
	if res.Config.Output != "" {
		if err := res.Solver.WriteSolutionFile(res.Config.Output); err != nil {
			return err
		}
		fmt.Printf("solution: %s\n", res.Config.Output)
	}

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.Run{
		Problem:   res.Problem,
		Tolerance: res.Config.Tolerance,
		Report:    res.Report,
		Metrics:   res.Metrics,
		History:   res.History,
		Changes:   res.Changes,
		Solver:    res.Solver,
	})
	if err != nil {
		return err
	}
	glog.Infof("saved run %s", runID)
	fmt.Printf("run: %s\n", runID)
	return nil
}

func printReport(res *experiment.Result) {
	r := res.Report
	sol := res.Solver
	fmt.Printf("problem: %s (%d states, %d actions, discount %g)\n", res.Problem, sol.NumStates(), sol.NumActions(), sol.Discount())
	if res.Sparsity != nil {
		fmt.Printf("sparsity: %d entries, mean fan-out %.2f, max %d, density %.4f\n",
			res.Sparsity.Entries, res.Sparsity.MeanFanOut, res.Sparsity.MaxFanOut, res.Sparsity.Density)
	}
	status := "converged"
	if !r.Converged {
		status = "not converged"
	}
	fmt.Printf("%s after %d/%d sweeps, residual %.3e, %s\n", status, r.Iterations, r.MaxIterations, r.Residual, r.Elapsed)
}

func watchProblem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	p := tea.NewProgram(viz.NewProgress(cfg.Problem, cfg.Iterations, cfg.Tolerance))

	results := make(chan *experiment.Result, 1)
	go func() {
		res, err := experiment.Solve(registry, cfg, bellman.ObserverFunc(func(s bellman.SweepStats) {
			p.Send(viz.SweepMsg(s))
		}))
		if err != nil {
			p.Send(viz.DoneMsg{Err: err})
			results <- nil
			return
		}
		p.Send(viz.DoneMsg{Report: res.Report})
		results <- res
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	progress := final.(viz.Progress)
	if progress.Aborted() {
		return errors.New("watch aborted before the solve finished")
	}
	if progress.Err() != nil {
		return progress.Err()
	}

	res := <-results
	if res == nil {
		return errors.New("solve produced no result")
	}
	return finishRun(res)
}

func verifyProblem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	model, err := experiment.NewRegistry().GetProblem(cfg.Problem, cfg)
	if err != nil {
		return err
	}
	sol, err := bellman.NewFromModel(model)
	if err != nil {
		return err
	}

	fmt.Printf("problem: %s (%d states, %d actions)\n", cfg.Problem, sol.NumStates(), sol.NumActions())
	if cfg.Sparse {
		sp := sol.AnalyzeSparsity()
		fmt.Printf("sparsity: %d entries, mean fan-out %.2f, max %d, density %.4f\n",
			sp.Entries, sp.MeanFanOut, sp.MaxFanOut, sp.Density)
	}
	if err := sol.Verify(cfg.VerifyTolerance); err != nil {
		fmt.Println(viz.StatusFailed.Render("invalid"))
		return err
	}
	fmt.Println(viz.StatusRunning.Render("ok"))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tTIME\tSTATES\tSWEEPS\tCONVERGED\tRESIDUAL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%v\t%.3e\n",
			run.ID,
			run.Problem,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.States,
			run.Iterations,
			run.MaxIterations,
			run.Converged,
			run.Residual,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	if annotated {
		data, err := st.LoadAnnotated(runID)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadSolution(runID)
	if err != nil {
		return err
	}

	if !pretty {
		data, err := os.ReadFile(st.SolutionPath(runID))
		if err != nil {
			return errors.Wrapf(err, "read solution of %s", runID)
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	fmt.Print(viz.RenderSolution(meta.Problem, rows, problemNamer(meta.Problem), showLimit))
	return nil
}

// problemNamer rebuilds a stored run's problem with default settings to
// recover its action names. Table problems need their config and get none.
func problemNamer(problem string) viz.ActionNamer {
	model, err := experiment.NewRegistry().GetProblem(problem, config.DefaultConfig())
	if err != nil {
		glog.V(1).Infof("no action names for %s: %v", problem, err)
		return nil
	}
	namer, _ := model.(viz.ActionNamer)
	return namer
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	residuals, changes, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadSolution(runID)
	if err != nil {
		return err
	}

	if len(residuals) == 0 && len(rows) == 0 {
		return errors.New("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n", meta.Problem)
	fmt.Printf("sweeps: %d\n\n", len(residuals))

	if len(residuals) > 0 {
		fmt.Println(viz.ResidualPlot(residuals))
		fmt.Println()
		fmt.Println(viz.ChangesPlot(changes))
		fmt.Println()
	}

	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Value
	}
	if len(values) > 0 {
		fmt.Println(viz.ValuePlot(values))
	}
	return nil
}

// parseGrid turns name=v1,v2 flags into parameter names and value ranges.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		name, list, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, nil, errors.Errorf("bad --param %q, want name=v1,v2", entry)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "--param %s", name)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func sweepProblem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(gridParams) == 0 {
		return errors.Errorf("no --param given (available: %v)", optim.Params())
	}

	names, ranges, err := parseGrid(gridParams)
	if err != nil {
		return err
	}
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	gs.Workers = workers

	points, best, err := gs.Search(context.Background(), experiment.NewRegistry(), cfg, objective)
	if err != nil {
		return err
	}

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSWEEPS\tCONVERGED\t%s\t\n", strings.ToUpper(strings.Join(sorted, "\t")), strings.ToUpper(objective))
	for i, p := range points {
		vals := make([]string, len(sorted))
		for j, name := range sorted {
			vals[j] = strconv.FormatFloat(p.Params[name], 'g', -1, 64)
		}
		mark := ""
		if i == best {
			mark = "*"
		}
		if p.Err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t%s\t\n", strings.Join(vals, "\t"), p.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%g\t%s\n", strings.Join(vals, "\t"),
			p.Result.Report.Iterations, p.Result.Report.Converged, p.Score, mark)
	}
	return w.Flush()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	residuals, _, err := storage.New(dataDir).LoadHistory(args[0])
	if err != nil {
		return err
	}
	svg := export.ResidualSVG(residuals, 800, 400)
	if svg == "" {
		return errors.New("need at least two sweeps to draw")
	}
	fmt.Println(svg)
	return nil
}

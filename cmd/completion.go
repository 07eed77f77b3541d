package cmd

import (
	"flag"
	"strings"

	"github.com/etnz/stockfolio/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the commander's commands and
// flags.
func Completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: make(map[string]complete.Predictor),
	}
	c.VisitAll(func(f *flag.Flag) {
		root.Flags[f.Name] = flagPredictor(f)
	})
	root.Flags["ledger"] = predict.Files("*")

	c.VisitCommands(func(_ *subcommands.CommandGroup, sub subcommands.Command) {
		fs := flag.NewFlagSet(sub.Name(), flag.ContinueOnError)
		sub.SetFlags(fs)
		cmd := &complete.Command{Flags: make(map[string]complete.Predictor)}
		fs.VisitAll(func(f *flag.Flag) {
			cmd.Flags[f.Name] = flagPredictor(f)
		})
		if sub.Name() == "topic" {
			topics, _ := docs.GetAllTopics()
			cmd.Args = predict.Set(topics)
		}
		root.Sub[sub.Name()] = cmd
	})
	return root
}

// flagPredictor predicts nothing for boolean flags, which take no value.
func flagPredictor(f *flag.Flag) complete.Predictor {
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	if strings.Contains(f.Usage, "See 'folio topic dates'") {
		return predict.Set{"today", "yesterday"}
	}
	return predict.Something
}

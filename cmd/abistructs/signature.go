package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/jshufro/abistructs/internal/driver"
)

func (a *app) signatureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signature [file]",
		Short: "List every declaration with its canonical signature",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res driver.Result
			if readsStdin(args) {
				results, err := resolveInputs(cmd.Context(), cmd.InOrStdin(), args, driver.Options{Jobs: a.cfg.Resolve.Jobs})
				if err != nil {
					return err
				}
				res = results[0]
			} else {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return errors.WithStack(err)
				}
				res, err = driver.Resolve(cmd.Context(), args[0], data, driver.Options{Jobs: a.cfg.Resolve.Jobs})
				if err != nil {
					return err
				}
			}

			if res.Warnings != nil {
				printWarning(cmd.ErrOrStderr(), res.Path, res.Warnings)
			}
			w := cmd.OutOrStdout()
			for _, d := range res.Catalogue.AllDeclarations() {
				fmt.Fprintf(w, "%s %s\n", d.Identifier, d.Signature)
			}
			return nil
		},
	}
}

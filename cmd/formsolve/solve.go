package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/njchilds90/formsolve/internal/format"
	"github.com/njchilds90/formsolve/internal/recognize"
)

var solveText bool

var solveCmd = &cobra.Command{
	Use:   "solve <latex>",
	Short: "Solve a formula given as LaTeX",
	Example: `  formsolve solve '2x+3=7'
  formsolve solve '6 \mid 12' --text`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := newPipeline().Process(strings.Join(args, " "))
		return printResult(cmd.OutOrStdout(), res, solveText)
	},
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Recognize a formula image and solve it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := recognize.ReadImageFile(args[0])
		if err != nil {
			return err
		}
		rec, err := newRecognizer(cfg, logger)
		if err != nil {
			return err
		}
		latex, res, err := newPipeline().Recognize(cmd.Context(), rec, img)
		if perr := printResult(cmd.OutOrStdout(), res, solveText); perr != nil {
			return perr
		}
		if err != nil {
			return err
		}
		logger.Debug("recognized", "latex", latex)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{solveCmd, recognizeCmd} {
		c.Flags().BoolVar(&solveText, "text", false, "print a plain text answer instead of JSON")
	}
	recognizeCmd.Flags().String("provider", "", "recognizer backend: openai, gemini or tesseract")
	_ = v.BindPFlag("recognizer.provider", recognizeCmd.Flags().Lookup("provider"))
}

func printResult(w io.Writer, res format.DisplayResult, text bool) error {
	if text {
		_, err := fmt.Fprintln(w, res.Label+"\n"+res.Answer)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/paisatrail/paisatrail/internal/category"
	"github.com/paisatrail/paisatrail/internal/mapper"
	"github.com/paisatrail/paisatrail/internal/model"
	"github.com/paisatrail/paisatrail/internal/parser"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [notification text]",
		Short: "Parse a notification without delivering it",
		Long: `Run the parser and category predictor against a single notification
and print the resulting event as JSON. Nothing is stored or delivered;
use this to debug why a notification was or was not picked up.

Example:
  paisatrail parse --package com.google.android.apps.nbu.paisa.user \
    "Paid ₹250 to ABC Store via UPI Ref 123456789012"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}

	cmd.Flags().String("package", "", "notification package name (helps template selection)")
	cmd.Flags().String("title", "", "notification title")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	pkg, _ := cmd.Flags().GetString("package")
	title, _ := cmd.Flags().GetString("title")
	body := strings.Join(args, " ")

	// Feedback is deliberately not loaded: parse output should be
	// reproducible on any machine.
	suggester, err := category.NewSuggester(cmd.Context(), nil)
	if err != nil {
		return err
	}

	event := mapper.New(parser.New(), suggester).Map(model.RawNotification{
		PackageName: pkg,
		Title:       title,
		Body:        body,
		PostedAt:    time.Now().UnixMilli(),
	})
	if event == nil {
		fmt.Fprintln(os.Stderr, "no transaction detected")
		return nil
	}

	out, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "fingerprint: %s\n", event.Fingerprint)
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"yqhp/matrix-engine/api/rest/client"
	"yqhp/matrix-engine/pkg/types"
)

var (
	multiplyBroker  string
	multiplyLeft    string
	multiplyRight   string
	multiplyTimeout time.Duration
)

var multiplyCmd = &cobra.Command{
	Use:   "multiply",
	Short: "Multiply two matrices on a running broker",
	Long: `Sends left × right to a broker and prints the product as JSON.
Matrices are JSON arrays of rows, given inline or as @file.`,
	Example: `  matrix-engine multiply --left '[[1,2],[3,4]]' --right '[[5,6],[7,8]]'
  matrix-engine multiply --broker http://broker:8000 --left @a.json --right @b.json`,
	RunE: runMultiply,
}

func init() {
	rootCmd.AddCommand(multiplyCmd)

	multiplyCmd.Flags().StringVar(&multiplyBroker, "broker", "http://localhost:8000", "broker base URL")
	multiplyCmd.Flags().StringVar(&multiplyLeft, "left", "", "left matrix as JSON or @file")
	multiplyCmd.Flags().StringVar(&multiplyRight, "right", "", "right matrix as JSON or @file")
	multiplyCmd.Flags().DurationVar(&multiplyTimeout, "timeout", time.Minute, "request timeout")
	_ = multiplyCmd.MarkFlagRequired("left")
	_ = multiplyCmd.MarkFlagRequired("right")
}

func runMultiply(cmd *cobra.Command, args []string) error {
	left, err := parseMatrix(multiplyLeft)
	if err != nil {
		return fmt.Errorf("invalid --left: %w", err)
	}
	right, err := parseMatrix(multiplyRight)
	if err != nil {
		return fmt.Errorf("invalid --right: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), multiplyTimeout)
	defer cancel()

	result, err := client.NewBrokerClient(multiplyBroker, multiplyTimeout).Multiply(ctx, left, right)
	if err != nil {
		return err
	}

	out, err := sonic.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// parseMatrix decodes a JSON matrix given inline or as @path.
func parseMatrix(arg string) (types.Matrix, error) {
	data := []byte(arg)
	if len(arg) > 0 && arg[0] == '@' {
		var err error
		data, err = os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read matrix file: %w", err)
		}
	}

	var m types.Matrix
	if err := sonic.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse matrix: %w", err)
	}
	return m, nil
}

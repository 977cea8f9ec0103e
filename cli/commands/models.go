package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/venice"
)

var modelType string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	Long: `List the models available to your account.

Examples:
  venice models
  venice models --type image
  venice models --json`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVar(&modelType, "type", "", "filter by model type (text, image, embedding, tts, upscale)")
}

func runModels(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	list, err := client.Models.List(context.Background(), venice.ModelType(modelType))
	if err != nil {
		return handleChatError(err)
	}

	if jsonOutput {
		return outputJSON(list)
	}

	if len(list.Data) == 0 {
		fmt.Println("No models available.")
		return nil
	}

	for _, m := range list.Data {
		fmt.Printf("%-40s %s\n", m.ID, m.Type)
	}
	return nil
}

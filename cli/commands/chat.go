package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/venice"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAPI        = 2
	ExitNetwork    = 3
)

var (
	prompt      string
	system      string
	temperature float64
	maxTokens   int
	stream      bool
	character   string
	webSearch   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send a chat completion request",
	Long: `Send a chat completion request to the Venice AI API.

Examples:
  venice chat --model llama-3.3-70b --prompt "Hello"
  venice chat --prompt "Hello" --stream
  venice chat --prompt "Hello" --character alan-watts
  venice chat --prompt "Hello" --json`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&prompt, "prompt", "", "User message (required)")
	chatCmd.Flags().StringVar(&system, "system", "", "System message")
	chatCmd.Flags().Float64Var(&temperature, "temperature", 0, "Temperature (0 = use default)")
	chatCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Max tokens (0 = use default)")
	chatCmd.Flags().BoolVar(&stream, "stream", false, "Enable streaming output")
	chatCmd.Flags().StringVar(&character, "character", "", "Venice character slug")
	chatCmd.Flags().BoolVar(&webSearch, "web-search", false, "Enable web search")

	_ = chatCmd.MarkFlagRequired("prompt")
}

func runChat(cmd *cobra.Command, args []string) error {
	if model == "" {
		return exitWithCode(ExitValidation, fmt.Errorf("model required: use --model flag or set default_model in config"))
	}

	client, err := newClient()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	req := &venice.ChatCompletionRequest{
		Model:    model,
		Messages: buildMessages(),
	}
	if temperature > 0 {
		req.Temperature = &temperature
	}
	if maxTokens > 0 {
		req.MaxCompletionTokens = &maxTokens
	}
	if character != "" || webSearch {
		vp := &venice.VeniceParameters{CharacterSlug: character}
		if webSearch {
			vp.EnableWebSearch = "on"
		}
		req.VeniceParameters = vp
	}

	ctx := context.Background()

	if stream {
		return runStreamingChat(ctx, client, req)
	}
	return runNonStreamingChat(ctx, client, req)
}

func buildMessages() []venice.ChatMessage {
	var messages []venice.ChatMessage
	if system != "" {
		messages = append(messages, venice.ChatMessage{Role: venice.RoleSystem, Content: system})
	}
	messages = append(messages, venice.ChatMessage{Role: venice.RoleUser, Content: prompt})
	return messages
}

func runNonStreamingChat(ctx context.Context, client *venice.Client, req *venice.ChatCompletionRequest) error {
	resp, err := client.Chat.Completions.New(ctx, req)
	if err != nil {
		return handleChatError(err)
	}

	if jsonOutput {
		return outputJSON(resp)
	}

	// Text output
	fmt.Printf("> %s\n", prompt)
	if len(resp.Choices) > 0 {
		fmt.Println(resp.Choices[0].Message.Content)
	}

	if verbose && resp.Usage != nil {
		fmt.Fprintf(os.Stderr, "Usage: %d prompt + %d completion = %d total tokens\n",
			resp.Usage.PromptTokens,
			resp.Usage.CompletionTokens,
			resp.Usage.TotalTokens)
	}
	return nil
}

func runStreamingChat(ctx context.Context, client *venice.Client, req *venice.ChatCompletionRequest) error {
	chunks, err := client.Chat.Completions.NewStreaming(ctx, req)
	if err != nil {
		return handleChatError(err)
	}
	defer chunks.Close()

	fmt.Printf("> %s\n", prompt)

	for chunks.Next() {
		chunk := chunks.Current()
		if len(chunk.Choices) > 0 {
			fmt.Print(chunk.Choices[0].Delta.Content)
		}
	}
	fmt.Println()

	if err := chunks.Err(); err != nil {
		return handleChatError(err)
	}
	return nil
}

func handleChatError(err error) error {
	var apiErr *venice.Error
	if errors.As(err, &apiErr) {
		if jsonOutput {
			outputErrorJSON(apiErr)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", apiErr.Message)
		}

		switch apiErr.Kind {
		case venice.KindTimeout, venice.KindConnection:
			return exitWithCode(ExitNetwork, err)
		case venice.KindInvalidRequest:
			return exitWithCode(ExitValidation, err)
		default:
			return exitWithCode(ExitAPI, err)
		}
	}

	if jsonOutput {
		outputSimpleErrorJSON("error", err.Error())
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitWithCode(ExitAPI, err)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputErrorJSON(apiErr *venice.Error) {
	output := map[string]any{
		"error": map[string]any{
			"kind":    string(apiErr.Kind),
			"message": apiErr.Message,
			"status":  apiErr.Status,
		},
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

func outputSimpleErrorJSON(errType, message string) {
	output := map[string]any{
		"error": map[string]any{
			"kind":    errType,
			"message": message,
		},
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

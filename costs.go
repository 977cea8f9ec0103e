package venice

import "strings"

const tokensPerMillion = 1_000_000

// Cost is a computed price for a request, in both billing currencies.
type Cost struct {
	USD float64
	VCU float64
}

// tokenCost prices a (prompt, completion) token pair against a model's
// pricing. The per-token-type pricing structure is preferred; when it is
// absent or entirely zero the legacy per-million-token fields apply.
func tokenCost(promptTokens, completionTokens float64, pricing *ModelPricing) Cost {
	if pricing == nil {
		return Cost{}
	}

	var c Cost
	priced := false
	if pricing.Input != nil {
		if pricing.Input.USD > 0 {
			c.USD += promptTokens / tokensPerMillion * pricing.Input.USD
			priced = true
		}
		if pricing.Input.VCU > 0 {
			c.VCU += promptTokens / tokensPerMillion * pricing.Input.VCU
			priced = true
		}
	}
	if pricing.Output != nil {
		if pricing.Output.USD > 0 {
			c.USD += completionTokens / tokensPerMillion * pricing.Output.USD
			priced = true
		}
		if pricing.Output.VCU > 0 {
			c.VCU += completionTokens / tokensPerMillion * pricing.Output.VCU
			priced = true
		}
	}
	if priced {
		return c
	}

	c.USD = promptTokens/tokensPerMillion*pricing.InputCostPerMtok +
		completionTokens/tokensPerMillion*pricing.OutputCostPerMtok
	c.VCU = promptTokens/tokensPerMillion*pricing.InputCostPerMtokVCU +
		completionTokens/tokensPerMillion*pricing.OutputCostPerMtokVCU
	return c
}

// CalculateCompletionCost prices a chat completion from its usage data.
// Returns a zero cost when the completion carries no usage or pricing is
// nil.
func CalculateCompletionCost(completion *ChatCompletion, pricing *ModelPricing) Cost {
	if completion == nil || completion.Usage == nil {
		return Cost{}
	}
	return tokenCost(float64(completion.Usage.PromptTokens), float64(completion.Usage.CompletionTokens), pricing)
}

// CalculateEmbeddingCost prices an embedding request from its usage data.
// Embeddings bill input tokens only.
func CalculateEmbeddingCost(embeddings *EmbeddingList, pricing *ModelPricing) Cost {
	if embeddings == nil || embeddings.Usage == nil {
		return Cost{}
	}
	return tokenCost(float64(embeddings.Usage.TotalTokens), 0, pricing)
}

// EstimateCompletionCost predicts the cost of a completion before sending
// it. Prompt tokens are approximated from the word count at tokensPerWord
// tokens each (1.3 when zero); actual tokenization will differ.
func EstimateCompletionCost(prompt string, estimatedCompletionTokens int, pricing *ModelPricing, tokensPerWord float64) Cost {
	if tokensPerWord <= 0 {
		tokensPerWord = 1.3
	}
	promptTokens := float64(int(float64(len(strings.Fields(prompt))) * tokensPerWord))
	return tokenCost(promptTokens, float64(estimatedCompletionTokens), pricing)
}

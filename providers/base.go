package providers

// Base provides the common name/apiKey/baseURL fields shared by provider
// implementations. Embed it to avoid repeating the accessors.
type Base struct {
	name    string
	apiKey  string
	baseURL string
}

// Name returns the provider name.
func (b *Base) Name() string { return b.name }

// ModelsFromList builds a ModelInfo slice from a list of model IDs.
func ModelsFromList(providerName string, ids []string) []ModelInfo {
	models := make([]ModelInfo, len(ids))
	for i, id := range ids {
		models[i] = ModelInfo{ID: id, OwnedBy: providerName}
	}
	return models
}

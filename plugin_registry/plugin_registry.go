package plugin_registry

import (
	"github.com/lcabral/docqa/services/llm_service"
	"github.com/lcabral/docqa/services/rag_service"
)

// PluginRegistry holds the named capability adapters (LLM providers,
// embedding providers) so the composition root can select them by
// configuration.
type PluginRegistry struct {
	llmServices       map[string]llm_service.LLMService
	embeddingServices map[string]rag_service.EmbeddingService
}

func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		llmServices:       make(map[string]llm_service.LLMService),
		embeddingServices: make(map[string]rag_service.EmbeddingService),
	}
}

// RegisterLLMService registers a new LLM service
func (pr *PluginRegistry) RegisterLLMService(name string, service llm_service.LLMService) {
	pr.llmServices[name] = service
}

// GetLLMService returns an LLM service by name
func (pr *PluginRegistry) GetLLMService(name string) (llm_service.LLMService, bool) {
	service, ok := pr.llmServices[name]
	return service, ok
}

// RegisterEmbeddingService registers a new embedding service
func (pr *PluginRegistry) RegisterEmbeddingService(name string, service rag_service.EmbeddingService) {
	pr.embeddingServices[name] = service
}

// GetEmbeddingService returns an embedding service by name
func (pr *PluginRegistry) GetEmbeddingService(name string) (rag_service.EmbeddingService, bool) {
	service, ok := pr.embeddingServices[name]
	return service, ok
}

package plugin_registry_test

import (
	"testing"

	"github.com/lcabral/docqa/plugin_registry"
	"github.com/lcabral/docqa/services/llm_service"
	"github.com/lcabral/docqa/services/rag_service"
)

func TestRegisterAndGetLLMService(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()

	// Register a mock LLM service
	mockLLMService := &llm_service.MockLLMService{}
	registry.RegisterLLMService("mock_llm_service", mockLLMService)

	// Retrieve the LLM service
	service, ok := registry.GetLLMService("mock_llm_service")
	if !ok {
		t.Fatal("Expected to retrieve registered LLM service, got false")
	}

	if service != mockLLMService {
		t.Errorf("Expected retrieved service to be the same as registered service")
	}
}

func TestGetUnregisteredLLMService(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()

	_, ok := registry.GetLLMService("unknown_service")
	if ok {
		t.Fatal("Expected to not find unregistered LLM service, but got true")
	}
}

func TestRegisterAndGetEmbeddingService(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()

	mockEmbedding := &rag_service.MockEmbeddingService{Dim: 8}
	registry.RegisterEmbeddingService("mock_embedding", mockEmbedding)

	service, ok := registry.GetEmbeddingService("mock_embedding")
	if !ok {
		t.Fatal("Expected to retrieve registered embedding service, got false")
	}

	if service != mockEmbedding {
		t.Errorf("Expected retrieved service to be the same as registered service")
	}
}

func TestGetUnregisteredEmbeddingService(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()

	_, ok := registry.GetEmbeddingService("unknown_service")
	if ok {
		t.Fatal("Expected to not find unregistered embedding service, but got true")
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig     `json:"server"`
	Providers []ProviderConfig `json:"providers"`
	Database  DatabaseConfig   `json:"database"`
	Embedding EmbeddingConfig  `json:"embedding"`
	Retrieval RetrievalConfig  `json:"retrieval"`
	Graph     GraphConfig      `json:"graph"`
	Catalog   CatalogConfig    `json:"catalog"`
	Agent     AgentConfig      `json:"agent"`
	History   HistoryConfig    `json:"history"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type ProviderConfig struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Name     string            `json:"name"`
	Endpoint string            `json:"endpoint"`
	APIKey   string            `json:"api_key"`
	Model    string            `json:"model"`
	Extra    map[string]string `json:"extra,omitempty"`
}

type DatabaseConfig struct {
	Neo4j  Neo4jConfig  `json:"neo4j"`
	Redis  RedisConfig  `json:"redis"`
	Qdrant QdrantConfig `json:"qdrant"`
	// Postgres is optional; when set, history events are mirrored there.
	Postgres PostgresConfig `json:"postgres"`
}

type Neo4jConfig struct {
	URI      string `json:"uri"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

type QdrantConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type EmbeddingConfig struct {
	Provider  string `json:"provider"` // "api" | "local" | ""
	Endpoint  string `json:"endpoint"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
	Dimension int    `json:"dimension"`
}

type RetrievalConfig struct {
	DocsDir    string `json:"docs_dir"`
	StorePath  string `json:"store_path"` // TF-IDF snapshot location
	Collection string `json:"collection"` // Qdrant collection name
	TopK       int    `json:"top_k"`
}

type GraphConfig struct {
	EdgesCSV  string `json:"edges_csv"`
	GraphJSON string `json:"graph_json"`
	Mode      string `json:"mode"` // "local" | "neo4j"
	MaxHops   int    `json:"max_hops"`
}

type CatalogConfig struct {
	CatalogPath string `json:"catalog_path"`
	ProfilePath string `json:"profile_path"`
}

type AgentConfig struct {
	MaxSteps      int    `json:"max_steps"`
	KnowledgeMode string `json:"knowledge_mode"` // "auto" | "vector" | "graph" | "compare"
}

type HistoryConfig struct {
	Path string `json:"path"` // JSONL event log
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.StorePath == "" {
		c.Retrieval.StorePath = "data/indexes/tfidf.json"
	}
	if c.Retrieval.Collection == "" {
		c.Retrieval.Collection = "documents"
	}
	if c.Graph.MaxHops == 0 {
		c.Graph.MaxHops = 2
	}
	if c.Graph.Mode == "" {
		c.Graph.Mode = "local"
	}
	if c.Agent.MaxSteps == 0 {
		c.Agent.MaxSteps = 3
	}
	if c.Agent.KnowledgeMode == "" {
		c.Agent.KnowledgeMode = "auto"
	}
	if c.History.Path == "" {
		c.History.Path = "data/history/events.jsonl"
	}
}

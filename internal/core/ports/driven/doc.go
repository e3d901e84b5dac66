// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Connector / ConnectorFactory: List and read files from a storage backend
//   - ParsingProvider / ParsingProviderFactory: Turn file bytes into text
//   - IngestionStore: Source and run persistence
//   - CompanyStore / CollectionStore: Tenant and collection persistence
//   - DocumentStore: Document and chunk persistence
//   - CompanyConfigProvider: Per-company configuration
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil and the application degrades gracefully:
//
//   - EmbeddingService: Without it chunks are stored without vectors.
//   - RunLocker: Without it only the persisted RUNNING status guards runs.
//   - IngestionMetrics: Without it nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or parser package
package driven

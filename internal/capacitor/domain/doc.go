// Package domain holds the value types shared by the ingestion engine: execution
// outcomes as delivered by the block feed, decoded log records, and the documents
// and write operations handed to the document store.
package domain

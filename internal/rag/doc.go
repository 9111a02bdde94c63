// Package rag holds the retrieval primitives shared by the question answering pipeline.
//
// This package provides:
//   - Chunk and RerankedChunk, the values passed between search and generation
//   - The fixed retrieval constants (search width, confidence threshold, context budget)
//   - The lexical reranker and its tokenizer
//   - Vector helpers used by the in-process stores and embedders
//
// Scores produced by the vector stores are distances: lower means closer.
package rag

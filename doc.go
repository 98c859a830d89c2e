// Package tinywasm is an embeddable decoder and interpreter for the
// WebAssembly 1.0 (MVP) core specification: it turns a .wasm binary into
// a Module with DecodeModule, links a Module against host-supplied
// imports with Instantiate, and runs exported functions through a
// tree-walking interpreter built on a pluggable Vector backing so it can
// run without a heap allocator where that matters.
//
// It implements the MVP core spec only: no WASI, no SIMD, no threads, no
// garbage-collected reference types, no multi-value beyond what the
// binary format's block-type encoding already permits decoding.
package tinywasm

// Package aggregates owns transaction boundaries for multi-row writes and maps
// storage failures onto the API error taxonomy.
package aggregates

// Package stats records request latency and outcome counts in HDR
// histograms. Recorder wraps any apiclient.Transport so every call made
// through a Client is measured per HTTP verb.
package stats

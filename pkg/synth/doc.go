// Package synth turns a finished run into a prose narrative using an
// OpenAI-compatible chat API.
//
// Synthesis is presentation-only. The prompt is built deterministically from
// the run result, the model is instructed to restate only what the findings
// and anomalies already say, and a failed or slow request never affects the
// run: the caller simply omits the narrative. Nothing synthesized here feeds
// back into analysis.
package synth

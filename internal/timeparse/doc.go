// Package timeparse resolves free-text time phrases into structured time
// specifications.
//
// Resolution is a two-stage pipeline:
//
//  1. Recurrence detection: phrases like "every Monday" or "every month on
//     the 5th" are matched directly and produce a weekly/monthly spec. These
//     short-circuit the rest of the pipeline.
//  2. Lexical normalization + delegate parse: everything else is rewritten by
//     an ordered chain of regex passes into a canonical form ("tomorrow
//     evening nine o'clock" -> "tomorrow 9:00 PM") and handed to a generic
//     natural-language date parser.
//
// The normalizer's passes are order-sensitive and intentionally run at most
// once each; see Normalize.
package timeparse

// Package format renders a parsed FSH document back into normalized source
// text: a pretty-printer built from a small set of format elements (static
// tokens, dynamic text, spaces, and line breaks) rather than a direct
// string-concatenation walk, so that long rule lines can be measured and
// wrapped before anything is written out.
//
// CST nodes the builder does not recognize fall through verbatim: their
// exact source text is reproduced unchanged, so formatting a file that uses
// a construct this package has no opinion about is always safe.
package format

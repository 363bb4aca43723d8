// See cst.go for the node/token model and builder.go for tree construction.
package cst

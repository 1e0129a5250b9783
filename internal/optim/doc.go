// Package optim tunes model quantities by exhaustive grid search.
package optim

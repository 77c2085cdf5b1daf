// Package mirror copies every ref of a source repository onto a destination repository.
//
// Each transfer runs inside a fresh temporary workspace that the process
// switches into and that is removed afterwards, whether the transfer succeeds
// or not. Two engines are available: the git command-line client (default)
// and an in-process go-git implementation.
package mirror

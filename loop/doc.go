// Package loop provides utilities for loop representation and detection.
//
// Loop detection computes the dominator tree of a function and finds its
// natural loops: an edge latch → header where header dominates latch is a
// back edge, and the loop body is every block that reaches a latch without
// passing through the header. Back edges sharing a header form one loop.
//
// Loops are organised in a Forest by containment. Each Loop knows its
// parent, subloops, nesting depth (1 for an outermost loop) and member
// blocks.
package loop

// Package grouping holds the pure rules behind ride groups: bag capacity,
// vehicle classification, rider-to-group compatibility and the consensus
// pickup window.  Nothing here touches storage.
package grouping

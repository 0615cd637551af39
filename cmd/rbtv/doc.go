// Command rbtv browses the Rocket Beans TV mediathek, mirrors it into a
// local snapshot, and bulk-downloads episodes with resumable completion
// records.
package main

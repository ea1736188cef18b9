// Command sift scores documents against job specifications through the
// multi-provider workflow pipeline.
//
// The CLI wraps the scoring library with configuration loading, cache
// management, and provider health checks. Run "sift score --document cv.txt
// --spec job.toml" for the common path.
package main

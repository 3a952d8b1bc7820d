package crawl

import "fmt"

func errCrawlFailed(path string, cause error) error {
	return fmt.Errorf("unable to crawl %s: %w", path, cause)
}

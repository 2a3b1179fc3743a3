package search

// Strategy locates result links for one search backend's markup.
// Selector must match anchor elements; TitleSelector, when set, picks the
// title text from inside the anchor instead of using all of its text.
type Strategy struct {
	Engine        string
	Selector      string
	TitleSelector string
}

// DefaultStrategies returns the known result-link layouts in priority order.
// The page's backend is not known in advance, so every pattern is tried.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Engine:   "duckduckgo-html",
			Selector: `a.result__a`,
		},
		{
			Engine:   "duckduckgo",
			Selector: `a[data-testid="result-title-a"]`,
		},
		{
			Engine:        "google",
			Selector:      `#search a:has(h3)`,
			TitleSelector: `h3`,
		},
		{
			Engine:   "bing",
			Selector: `#b_results li.b_algo h2 a`,
		},
		{
			Engine:        "brave",
			Selector:      `#results div.snippet a:has(div.title)`,
			TitleSelector: `div.title`,
		},
		{
			Engine:   "startpage",
			Selector: `a.result-title, a.w-gl__result-title`,
		},
		{
			Engine:   "baidu",
			Selector: `#content_left h3 a`,
		},
		{
			Engine:   "searxng",
			Selector: `article.result h3 a`,
		},
	}
}

package ingest

// Metadata attribute/value vocabulary ported from the author/date meta-tag
// lists used by the pack's other newspaper-style scraper (AUTHOR_VALS,
// AUTHOR_STOP_WORDS, PUBLISH_DATE_META_INFO). Only authorStopWords is
// consulted, by cleanAuthor on feed author names; the ingester does not
// read author or publish-date meta tags from fetched pages, so authorAttrs,
// authorVals and publishDateMetaNames are not referenced.

var authorAttrs = []string{"name", "rel", "itemprop", "class", "id", "property"}

var authorVals = []string{
	"author", "byline", "dc.creator", "byl", "article:author",
	"article:author_name", "story-byline", "article-author",
	"parsely-author", "sailthru.author", "citation_author",
}

var authorStopWords = map[string]bool{
	"By": true, "Reuters": true, "IANS": true, "AP": true, "AFP": true,
	"PTI": true, "ANI": true, "DPA": true, "Senior Reporter": true,
	"Reporter": true, "Writer": true, "Opinion Writer": true,
}

var publishDateMetaNames = []string{
	"published_date", "published_time", "cXenseParse:publishtime", "pubdate",
	"publish_date", "PublishDate", "dcterms.created", "rnews:datePublished",
	"article:published_time", "prism.publicationDate", "displaydate",
	"OriginalPublicationDate", "og:published_time", "datePublished",
	"article_date_original", "article.published", "published_time_telegram",
	"sailthru.date", "date", "Date", "original-publish-date",
	"DC.date.issued", "dc.date", "DC.Date", "parsely-pub-date",
}

// contentSelectors is the ordered list of CSS selectors tried, in order,
// to locate an article's body when the feed entry carries no usable
// content — the common selector hierarchy real news CMSes expose,
// broadest structural tag last.
var contentSelectors = []string{
	"article",
	"[itemprop='articleBody']",
	".article-body",
	".article-content",
	".story-body",
	".entry-content",
	"#article-body",
	"#content",
	"main",
}

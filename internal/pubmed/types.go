package pubmed

import (
	"encoding/xml"
	"strings"

	"github.com/clinsights/pubscreen/internal/model"
	"github.com/clinsights/pubscreen/internal/util"
)

// esearchResponse mirrors the E-utilities esearch JSON envelope
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	RetMax string   `json:"retmax"`
	IDList []string `json:"idlist"`
}

// articleSet mirrors the efetch XML payload
type articleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID    string     `xml:"PMID"`
	Article articleXML `xml:"Article"`
}

type articleXML struct {
	Title    richText    `xml:"ArticleTitle"`
	Journal  journalXML  `xml:"Journal"`
	Abstract abstractXML `xml:"Abstract"`
	Authors  []authorXML `xml:"AuthorList>Author"`
	Grants   []grantXML  `xml:"GrantList>Grant"`
}

// richText captures element content verbatim. PubMed embeds inline markup
// (<i>, <sup>, MathML) that the plain chardata mapping would silently drop.
type richText struct {
	Raw string `xml:",innerxml"`
}

// Text returns the flattened text content
func (r richText) Text() string {
	return util.CollapseSpace(util.StripTags(r.Raw))
}

type journalXML struct {
	Title string          `xml:"Title"`
	Issue journalIssueXML `xml:"JournalIssue"`
}

type journalIssueXML struct {
	PubDate pubDateXML `xml:"PubDate"`
}

type pubDateXML struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

// display renders the date as reported, without parsing
func (d pubDateXML) display() string {
	if d.MedlineDate != "" {
		return d.MedlineDate
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{d.Year, d.Month, d.Day} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

type abstractXML struct {
	Sections []abstractSection `xml:"AbstractText"`
}

type abstractSection struct {
	Label string `xml:"Label,attr"`
	Raw   string `xml:",innerxml"`
}

type authorXML struct {
	LastName       string   `xml:"LastName"`
	ForeName       string   `xml:"ForeName"`
	Initials       string   `xml:"Initials"`
	CollectiveName string   `xml:"CollectiveName"`
	Affiliations   []string `xml:"AffiliationInfo>Affiliation"`
}

// displayName renders the author the way PubMed's web UI does
func (a authorXML) displayName() string {
	if a.CollectiveName != "" {
		return strings.TrimSpace(a.CollectiveName)
	}
	name := a.ForeName
	if name == "" {
		name = a.Initials
	}
	return strings.TrimSpace(name + " " + a.LastName)
}

type grantXML struct {
	GrantID string `xml:"GrantID"`
	Agency  string `xml:"Agency"`
	Country string `xml:"Country"`
}

// display renders one grant as "Agency (GrantID)"
func (g grantXML) display() string {
	agency := strings.TrimSpace(g.Agency)
	id := strings.TrimSpace(g.GrantID)
	switch {
	case agency != "" && id != "":
		return agency + " (" + id + ")"
	case agency != "":
		return agency
	default:
		return id
	}
}

// publications converts the fetched article set into the pipeline's model
func (s articleSet) publications() []model.Publication {
	pubs := make([]model.Publication, 0, len(s.Articles))

	for _, art := range s.Articles {
		a := art.Citation.Article

		pub := model.Publication{
			ID:      strings.TrimSpace(art.Citation.PMID),
			Title:   a.Title.Text(),
			Journal: strings.TrimSpace(a.Journal.Title),
			PubDate: a.Journal.Issue.PubDate.display(),
		}

		seenAff := make(map[string]bool)
		for _, author := range a.Authors {
			if name := author.displayName(); name != "" {
				pub.Authors = append(pub.Authors, name)
			}
			for _, aff := range author.Affiliations {
				aff = util.CollapseSpace(util.StripTags(aff))
				if aff == "" || seenAff[aff] {
					continue
				}
				seenAff[aff] = true
				pub.Affiliations = append(pub.Affiliations, aff)
			}
		}

		sections := make([]string, 0, len(a.Abstract.Sections))
		for _, sec := range a.Abstract.Sections {
			text := util.CollapseSpace(util.StripTags(sec.Raw))
			if text == "" {
				continue
			}
			if sec.Label != "" {
				text = sec.Label + ": " + text
			}
			sections = append(sections, text)
		}
		pub.Abstract = strings.Join(sections, " ")

		seenGrant := make(map[string]bool)
		for _, grant := range a.Grants {
			g := grant.display()
			if g == "" || seenGrant[g] {
				continue
			}
			seenGrant[g] = true
			pub.Funding = append(pub.Funding, g)
		}

		pubs = append(pubs, pub)
	}

	return pubs
}

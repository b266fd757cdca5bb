package sources

import (
	"encoding/xml"
	"testing"
)

const pubmedFixture = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <Article>
        <Journal>
          <JournalIssue><PubDate><Year>2024</Year></PubDate></JournalIssue>
          <Title>Journal of Peptide Science</Title>
        </Journal>
        <ELocationID EIdType="pii">S0000</ELocationID>
        <ELocationID EIdType="doi">10.1002/psc.3579</ELocationID>
        <Abstract>
          <AbstractText>BPC-157 accelerated tendon healing.</AbstractText>
          <AbstractText>Effects were dose dependent.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Ivanov</LastName><Initials>AP</Initials></Author>
          <Author><LastName>Smith</LastName></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestPubmedXMLParsing(t *testing.T) {
	var set pubmedArticleSet
	if err := xml.Unmarshal([]byte(pubmedFixture), &set); err != nil {
		t.Fatalf("не удалось разобрать XML: %v", err)
	}
	if len(set.Articles) != 1 {
		t.Fatalf("ожидалась одна статья, получено %d", len(set.Articles))
	}
	article := set.Articles[0]
	if article.Journal != "Journal of Peptide Science" {
		t.Fatalf("неверный журнал: %q", article.Journal)
	}
	if article.Year != "2024" {
		t.Fatalf("неверный год: %q", article.Year)
	}
	doi := ""
	for _, eloc := range article.ELocationID {
		if eloc.EIdType == "doi" {
			doi = eloc.Value
			break
		}
	}
	if doi != "10.1002/psc.3579" {
		t.Fatalf("неверный DOI: %q", doi)
	}
	if len(article.Abstract) != 2 {
		t.Fatalf("ожидалось два фрагмента аннотации, получено %d", len(article.Abstract))
	}
	if len(article.Authors) != 2 {
		t.Fatalf("ожидалось два автора, получено %d", len(article.Authors))
	}
	if article.Authors[0].LastName != "Ivanov" || article.Authors[0].Initials != "AP" {
		t.Fatalf("неверный первый автор: %+v", article.Authors[0])
	}
}

func TestYearWindows(t *testing.T) {
	text := "filler text before the study published in 2024 with strong results"
	hits := yearWindows(text, 3)
	if len(hits) != 1 {
		t.Fatalf("ожидалось одно окно, получено %d", len(hits))
	}
	if hits[0] != text {
		t.Fatalf("короткий текст должен войти в окно целиком: %q", hits[0])
	}
}

func TestResolveRedirectPubMed(t *testing.T) {
	got := resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fpubmed.ncbi.nlm.nih.gov%2F12345%2F")
	if got != "https://pubmed.ncbi.nlm.nih.gov/12345/" {
		t.Fatalf("редирект не раскрылся: %q", got)
	}
	if got := resolveRedirect("https://example.org/study"); got != "https://example.org/study" {
		t.Fatalf("прямая ссылка должна вернуться как есть: %q", got)
	}
	if got := resolveRedirect("javascript:void(0)"); got != "" {
		t.Fatalf("не-http ссылка должна отбрасываться: %q", got)
	}
}

package eth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"

	"github.com/questx-lab/poolwidget/pkg/xcontext"
	"golang.org/x/net/html"
)

const chainlistURL = "https://chainlist.org/chain/%d"

var errNoChainData = errors.New("no chain data in page")

// parseChainlistPage extracts the rpc urls from the json payload embedded in a chainlist page.
func parseChainlistPage(text string) ([]string, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	var data string
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}

		if tokenType == html.TextToken {
			text := tokenizer.Token().Data
			var js json.RawMessage
			if json.Unmarshal([]byte(text), &js) == nil {
				data = text
			}
		}
	}

	if data == "" {
		return nil, errNoChainData
	}

	type result struct {
		Props struct {
			PageProps struct {
				Chain struct {
					Name string `json:"name"`
					RPC  []struct {
						Url string `json:"url"`
					} `json:"rpc"`
				} `json:"chain"`
			} `json:"pageProps"`
		} `json:"props"`
	}

	r := &result{}
	if err := json.Unmarshal([]byte(data), r); err != nil {
		return nil, err
	}

	ret := make([]string, 0)
	for _, rpc := range r.Props.PageProps.Chain.RPC {
		// websocket and templated (api key) urls are not usable here
		if !strings.HasPrefix(rpc.Url, "http") || strings.Contains(rpc.Url, "${") {
			continue
		}
		ret = append(ret, rpc.Url)
	}

	return ret, nil
}

func (c *defaultEthClient) GetExtraRpcs(ctx context.Context, chainID *big.Int) ([]string, error) {
	url := fmt.Sprintf(chainlistURL, chainID)
	xcontext.Logger(ctx).Infof("Getting extra rpcs from remote link %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get chain list data, status code = %d", res.StatusCode)
	}

	bz, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	return parseChainlistPage(string(bz))
}

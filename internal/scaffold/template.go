package scaffold

import (
	"fmt"
	"time"
)

// TemplateFileName is looked up inside the template directory.
const TemplateFileName = "template.cpp"

// DefaultTemplate is written to the template directory when it holds no
// template yet.
const DefaultTemplate = `#include <bits/stdc++.h>
using namespace std;

#define ll long long
#define vi vector<int>
#define vll vector<long long>
#define pii pair<int, int>
#define all(x) (x).begin(), (x).end()

void solve() {

}

int main() {
    ios::sync_with_stdio(false);
    cin.tie(nullptr);

    int t = 1;
    // cin >> t;
    while (t--) {
        solve();
    }
    return 0;
}
`

const headerDateLayout = "2006-01-02"

// Header is the comment block placed above the template in a generated file.
func Header(contestID int, index, problemURL string, date time.Time) string {
	return fmt.Sprintf(
		"/**\n * Problem: Codeforces %d%s\n * URL: %s\n * Date: %s\n */\n",
		contestID, index, problemURL, date.Format(headerDateLayout),
	)
}

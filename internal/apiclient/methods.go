package apiclient

import (
	"context"
	"strconv"
	"strings"

	"github.com/rohmanhakim/cfcli/pkg/failure"
)

const (
	MethodContestList      = "contest.list"
	MethodContestStandings = "contest.standings"
)

// UserInfo fetches the public profiles of handles.
func (c *Client) UserInfo(ctx context.Context, handles ...string) ([]User, failure.ClassifiedError) {
	var users []User
	params := map[string]string{"handles": strings.Join(handles, ";")}
	if err := c.CallInto(ctx, MethodUserInfo, params, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ContestList fetches every contest, or every gym contest when gym is set.
func (c *Client) ContestList(ctx context.Context, gym bool) ([]Contest, failure.ClassifiedError) {
	var contests []Contest
	params := map[string]string{"gym": strconv.FormatBool(gym)}
	if err := c.CallInto(ctx, MethodContestList, params, &contests); err != nil {
		return nil, err
	}
	return contests, nil
}

// ContestStandings fetches the contest header and its problem list. from and
// count page through the ranking rows, which are ignored here.
func (c *Client) ContestStandings(ctx context.Context, contestID int, from int, count int) (Standings, failure.ClassifiedError) {
	var standings Standings
	params := map[string]string{
		"contestId": strconv.Itoa(contestID),
		"from":      strconv.Itoa(from),
		"count":     strconv.Itoa(count),
	}
	if err := c.CallInto(ctx, MethodContestStandings, params, &standings); err != nil {
		return Standings{}, err
	}
	return standings, nil
}

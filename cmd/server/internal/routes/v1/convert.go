package v1

import (
	"github.com/google/uuid"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/types"
)

func contestResponse(c *contest.Contest, counts *contest.Counts) types.ContestResponse {
	resp := types.ContestResponse{
		ID:                 c.ID,
		Title:              c.Title,
		Description:        c.Description,
		PubliclyListed:     c.PubliclyListed,
		PasswordProtected:  c.PasswordProtected,
		Status:             string(c.Status),
		EndDate:            c.EndDate,
		AuthorRestrictions: c.AuthorRestrictions,
		JudgeRestrictions:  c.JudgeRestrictions,
		MinVotesRequired:   c.MinVotesRequired,
		CreatorID:          c.CreatorID,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		ClosedAt:           c.ClosedAt,
	}
	if counts != nil {
		resp.Counts = &types.ContestCounts{
			Submissions:  counts.Submissions,
			Participants: counts.Participants,
			Judges:       counts.Judges,
		}
	}
	return resp
}

func submissionResponse(s *contest.Submission) types.SubmissionResponse {
	return types.SubmissionResponse{
		ID:          s.ID,
		ContestID:   s.ContestID,
		TextID:      s.TextID,
		AuthorID:    s.AuthorID,
		SubmittedAt: s.SubmittedAt,
		WithdrawnAt: s.WithdrawnAt,
		Active:      s.Active(),
	}
}

func judgeResponse(j *contest.JudgeAssignment) types.JudgeResponse {
	return types.JudgeResponse{
		ID:            j.ID,
		ContestID:     j.ContestID,
		Kind:          string(j.Kind()),
		UserID:        j.UserID,
		AgentID:       j.AgentID,
		Volunteer:     j.Volunteer,
		AssignedBy:    j.AssignedBy,
		AssignedAt:    j.AssignedAt,
		RemovedAt:     j.RemovedAt,
		BallotVersion: j.BallotVersion,
	}
}

func ballotResponse(b *contest.Ballot) types.BallotResponse {
	votes := make([]types.VoteResponse, 0, len(b.Votes))
	for _, v := range b.Votes {
		votes = append(votes, types.VoteResponse{
			ID:           v.ID,
			SubmissionID: v.SubmissionID,
			Place:        v.Place,
			Comment:      v.Comment,
			CreatedAt:    v.CreatedAt,
		})
	}
	return types.BallotResponse{Judge: judgeResponse(&b.Judge), Votes: votes}
}

func completionResponse(c *contest.Completion) types.CompletionResponse {
	judges := make([]types.JudgeCompletionResponse, 0, len(c.Judges))
	for i := range c.Judges {
		jc := &c.Judges[i]
		judges = append(judges, types.JudgeCompletionResponse{
			Judge:        judgeResponse(&jc.Judge),
			Ranked:       jc.Ranked,
			Comments:     jc.Comments,
			HasVoted:     jc.HasVoted,
			MeetsMinimum: jc.MeetsMinimum,
		})
	}
	return types.CompletionResponse{
		Total:     c.Total,
		Completed: c.Completed,
		Required:  c.Required,
		Judges:    judges,
	}
}

func jobResponse(j *contest.Job) types.AIJobResponse {
	return types.AIJobResponse{
		ID:                j.ID,
		Kind:              string(j.Kind),
		ContestID:         j.ContestID,
		JudgeAssignmentID: j.JudgeAssignmentID,
		AgentID:           j.AgentID,
		AuthorID:          j.AuthorID,
		RequestedBy:       j.RequestedBy,
	}
}

func rankingResponse(contestID uuid.UUID, r *contest.Ranking) types.RankingResponse {
	standings := make([]types.StandingResponse, 0, len(r.Standings))
	for _, s := range r.Standings {
		votes := make([]types.ContributingVoteResponse, 0, len(s.ContributingVotes))
		for _, v := range s.ContributingVotes {
			votes = append(votes, types.ContributingVoteResponse{
				JudgeAssignmentID: v.JudgeAssignmentID,
				Kind:              string(v.Kind),
				Place:             v.Place,
				Points:            v.Points,
			})
		}
		standings = append(standings, types.StandingResponse{
			Position:          s.Position,
			SubmissionID:      s.SubmissionID,
			TextID:            s.TextID,
			AuthorID:          s.AuthorID,
			SubmittedAt:       s.SubmittedAt,
			Score:             s.Score,
			ContributingVotes: votes,
		})
	}
	return types.RankingResponse{
		ContestID:  contestID,
		Frozen:     r.Frozen,
		ComputedAt: r.ComputedAt,
		InputsHash: r.InputsHash,
		Standings:  standings,
	}
}

package model

import (
	"strings"
	"time"
)

// 以下为接口返回的投影结构，从持久化模型构造一次，不再做临时字段裁剪

type UserView struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Provider     string    `json:"provider"`
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUserView 本人视角，带手机号
func NewUserView(u *User) *UserView {
	v := NewPublicUserView(u)
	if u.Phone != nil {
		v.Phone = *u.Phone
	}
	return v
}

func NewPublicUserView(u *User) *UserView {
	return &UserView{
		ID:           u.ID,
		Name:         u.Name,
		Provider:     u.Provider,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
	}
}

type AuthorView struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
}

// NewAuthorView 匿名时不暴露作者
func NewAuthorView(u *User, anonymous bool) *AuthorView {
	if u == nil || anonymous {
		return nil
	}
	return &AuthorView{ID: u.ID, Name: u.Name, ProfileImage: u.ProfileImage}
}

type AuthView struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	User         *UserView `json:"user,omitempty"`
}

// OAuthCallbackView 未注册时带 signupToken，注册接口凭它认领第三方身份
type OAuthCallbackView struct {
	Registered  bool      `json:"registered"`
	SocialID    string    `json:"socialId"`
	SignupToken string    `json:"signupToken,omitempty"`
	Token       string    `json:"token,omitempty"`
	User        *UserView `json:"user,omitempty"`
}

type AdminView struct {
	ID         uint64 `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Permission int64  `json:"permission"`
}

func NewAdminView(a *Admin) *AdminView {
	return &AdminView{ID: a.ID, Username: a.Username, Name: a.Name, Permission: a.Permission}
}

type UserSchoolView struct {
	School *School `json:"school"`
	Grade  int     `json:"grade"`
	Class  string  `json:"class"`
	Dept   string  `json:"dept"`
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
}

type ArticleView struct {
	ID           uint64      `json:"id"`
	BoardID      uint64      `json:"boardId"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Images       []string    `json:"images"`
	IsAnonymous  bool        `json:"isAnonymous"`
	Views        int64       `json:"views"`
	LikeCount    int64       `json:"likeCount"`
	CommentCount int64       `json:"commentCount"`
	Author       *AuthorView `json:"author"`
	IsMine       bool        `json:"isMine"`
	IsLiked      bool        `json:"isLiked"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func NewArticleView(a *Article, author *User, viewerID uint64) *ArticleView {
	return &ArticleView{
		ID:           a.ID,
		BoardID:      a.BoardID,
		Title:        a.Title,
		Content:      a.Content,
		Images:       SplitList(a.Images),
		IsAnonymous:  a.IsAnonymous,
		Views:        a.Views,
		LikeCount:    a.LikeCount,
		CommentCount: a.CommentCount,
		Author:       NewAuthorView(author, a.IsAnonymous),
		IsMine:       viewerID != 0 && viewerID == a.UserID,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

type CommentView struct {
	ID          uint64          `json:"id"`
	ArticleID   uint64          `json:"articleId"`
	Content     string          `json:"content"`
	IsAnonymous bool            `json:"isAnonymous"`
	LikeCount   int64           `json:"likeCount"`
	Author      *AuthorView     `json:"author"`
	IsMine      bool            `json:"isMine"`
	ReComments  []ReCommentView `json:"recomments"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type ReCommentView struct {
	ID          uint64      `json:"id"`
	CommentID   uint64      `json:"commentId"`
	Content     string      `json:"content"`
	IsAnonymous bool        `json:"isAnonymous"`
	LikeCount   int64       `json:"likeCount"`
	Author      *AuthorView `json:"author"`
	IsMine      bool        `json:"isMine"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type LikeView struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

type AskedView struct {
	ID          uint64      `json:"id"`
	Question    string      `json:"question"`
	Answer      string      `json:"answer,omitempty"`
	IsAnonymous bool        `json:"isAnonymous"`
	Status      string      `json:"status"`
	Questioner  *AuthorView `json:"questioner"`
	CreatedAt   time.Time   `json:"createdAt"`
	AnsweredAt  *time.Time  `json:"answeredAt,omitempty"`
}

type AskedProfileView struct {
	User          *UserView        `json:"user"`
	CustomID      string           `json:"customId"`
	StatusMessage string           `json:"statusMessage"`
	Tags          []string         `json:"tags"`
	Questions     *Page[AskedView] `json:"questions"`
}

type ConnectionView struct {
	Provider      string    `json:"provider"`
	AccountID     string    `json:"accountId"`
	Name          string    `json:"name"`
	FollowerCount int64     `json:"followerCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewConnectionView(c *ConnectionAccount) ConnectionView {
	return ConnectionView{
		Provider:      c.Provider,
		AccountID:     c.AccountID,
		Name:          c.Name,
		FollowerCount: c.FollowerCount,
		CreatedAt:     c.CreatedAt,
	}
}

// SchoolScore 排行聚合查询的一行
type SchoolScore struct {
	SchoolID uint64
	Score    int64
}

type RankingView struct {
	Rank     int     `json:"rank"`
	SchoolID uint64  `json:"schoolId"`
	Score    int64   `json:"score"`
	School   *School `json:"school"`
}

type FightView struct {
	ID          uint64        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Requirement string        `json:"requirement"`
	StartAt     time.Time     `json:"startAt"`
	EndAt       time.Time     `json:"endAt"`
	Ranking     []RankingView `json:"ranking,omitempty"`
	MySchool    *RankingView  `json:"mySchool,omitempty"`
	Registered  bool          `json:"registered"`
}

func NewFightView(f *Fight) *FightView {
	return &FightView{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Requirement: f.Requirement,
		StartAt:     f.StartAt,
		EndAt:       f.EndAt,
	}
}

// SplitList 逗号分隔字段转切片，空串返回空切片
func SplitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinList(items []string) string {
	return strings.Join(items, ",")
}

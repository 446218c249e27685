package mockapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signupBody struct {
	Username        string `json:"username" binding:"required,min=3,max=150"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type transactionBody struct {
	Description string `json:"description" binding:"required,min=2"`
	Amount      string `json:"amount" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=income expense"`
	Category    any    `json:"category" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Client      string `json:"client"`
	Note        string `json:"note"`
	Completed   *bool  `json:"completed"`
}

type categoryBody struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func authedUser(c *gin.Context) *user {
	u, _ := c.MustGet(userKey).(*user)
	return u
}

// invalid writes a DRF-style field error map.
func invalid(c *gin.Context, field, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{field: []string{msg}})
}

func (s *Server) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials.", "details": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[body.Username]
	if !ok || u.password != body.Password {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid credentials.",
			"details": gin.H{"non_field_errors": []string{"Unable to log in with provided credentials."}},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.issueToken(u), "user": u})
}

func (s *Server) signup(c *gin.Context) {
	var body signupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration data.", "details": err.Error()})
		return
	}
	details := gin.H{}
	if body.Password != body.ConfirmPassword {
		details["confirm_password"] = []string{"Passwords do not match."}
	}
	if len(body.Password) < 8 {
		details["password"] = []string{"This password is too short. It must contain at least 8 characters."}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.users[body.Username]; taken {
		details["username"] = []string{"A user with that username already exists."}
	}
	if len(details) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration data.", "details": details})
		return
	}

	s.nextUser++
	u := &user{ID: s.nextUser, Username: body.Username, Email: body.Email, password: body.Password}
	s.users[u.Username] = u
	c.JSON(http.StatusCreated, gin.H{
		"token":   s.issueToken(u),
		"user":    u,
		"message": "Registration successful.",
	})
}

func (s *Server) logout(c *gin.Context) {
	u := authedUser(c)
	s.mu.Lock()
	for tok, name := range s.tokens {
		if name == u.Username {
			delete(s.tokens, tok)
		}
	}
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (s *Server) currentUser(c *gin.Context) {
	c.JSON(http.StatusOK, authedUser(c))
}

// listTransactions supports ?search= over category name, note and client,
// ?type=, ?completed= and ?ordering= on date or amount.
func (s *Server) listTransactions(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	typ := c.Query("type")
	completed := c.Query("completed")

	out := make([]transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if typ != "" && t.Type != typ {
			continue
		}
		if completed != "" && strconv.FormatBool(t.Completed) != strings.ToLower(completed) {
			continue
		}
		if search != "" {
			cat, _ := s.categoryByID(t.Category)
			hay := strings.ToLower(strings.Join([]string{cat.Name, t.Note, t.Client, t.Description}, " "))
			if !strings.Contains(hay, search) {
				continue
			}
		}
		out = append(out, t)
	}

	switch strings.TrimSpace(c.Query("ordering")) {
	case "date":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	case "-date":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	case "amount":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.LessThan(out[j].Amount) })
	case "-amount":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.GreaterThan(out[j].Amount) })
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createTransaction(c *gin.Context) {
	var body transactionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction.", "details": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(body.Amount))
	if err != nil {
		invalid(c, "amount", "Amount must be a decimal number.")
		return
	}
	if !amount.IsPositive() {
		invalid(c, "amount", "Amount must be greater than zero.")
		return
	}
	date, err := time.Parse(dateLayout, body.Date)
	if err != nil {
		invalid(c, "date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
		return
	}
	catID, ok := categoryKey(body.Category)
	if !ok {
		invalid(c, "category", "Incorrect type. Expected pk value.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categoryByID(catID); !ok {
		invalid(c, "category", `Invalid pk "`+strconv.Itoa(catID)+`" - object does not exist.`)
		return
	}

	now := s.now().UTC()
	done := !date.After(now)
	if body.Completed != nil {
		done = *body.Completed
	}
	s.nextTx++
	t := transaction{
		ID:          s.nextTx,
		Description: strings.TrimSpace(body.Description),
		Amount:      amount.Round(2),
		Type:        body.Type,
		Date:        date.Format(dateLayout),
		Category:    catID,
		Client:      body.Client,
		Note:        body.Note,
		Completed:   done,
		User:        authedUser(c).ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.txs = append(s.txs, t)
	c.JSON(http.StatusCreated, t)
}

// categoryKey accepts the primary key as a JSON number or numeric string.
func categoryKey(v any) (int, bool) {
	switch k := v.(type) {
	case float64:
		return int(k), k == float64(int(k))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(k))
		return n, err == nil
	}
	return 0, false
}

func (s *Server) summary(c *gin.Context) {
	s.mu.RLock()
	completed, pending := summarize(s.txs, s.now().UTC())
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"completed": completed, "pending": pending})
}

func (s *Server) listCategories(c *gin.Context) {
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]category, 0, len(s.categories))
	for _, cat := range s.categories {
		if search != "" && !strings.Contains(strings.ToLower(cat.Name+" "+cat.Description), search) {
			continue
		}
		out = append(out, cat)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createCategory(c *gin.Context) {
	var body categoryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		invalid(c, "name", "This field is required.")
		return
	}
	name := strings.TrimSpace(body.Name)
	if len(name) < 3 {
		invalid(c, "non_field_errors", "Name must be at least 3 characters long.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.categoryByName(name); exists {
		invalid(c, "name", "category with this name already exists.")
		return
	}
	now := s.now().UTC()
	s.nextCategory++
	cat := category{ID: s.nextCategory, Name: name, Description: body.Description, CreatedAt: now, UpdatedAt: now}
	s.categories = append(s.categories, cat)
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) budgetProgress(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name := func(id int) string {
		cat, _ := s.categoryByID(id)
		return cat.Name
	}
	c.JSON(http.StatusOK, progress(s.budgets, s.txs, name, s.now().UTC()))
}

func (s *Server) forecast(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c.JSON(http.StatusOK, forecast13(s.txs, s.now().UTC()))
}

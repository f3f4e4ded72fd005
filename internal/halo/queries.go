package halo

// GraphQL documents for the Halo gateway, grouped by domain. These mirror the
// queries the Halo web client issues; the gateway rejects unknown fields, so
// the selections are kept exactly as the portal sends them.

// Course and class queries.
const (
	QueryCourseClassesForUser = `
query getCourseClassesForUser($pgNum: Int, $pgSize: Int) {
  getCourseClassesForUser(pgNum: $pgNum, pgSize: $pgSize) {
    courseClasses {
      id
      classCode
      sectionId
      slugId
      startDate
      endDate
      name
      description
      stage
      modality
      version
      courseCode
      units {
        id
        current
        title
        sequence
        __typename
      }
      instructors {
        id
        roleName
        baseRoleName
        status
        userId
        user {
          id
          userStatus
          firstName
          lastName
          preferredFirstName
          userImgUrl
          sourceId
          __typename
        }
        __typename
      }
      students {
        id
        userId
        status
        isHonors
        __typename
      }
      __typename
    }
    __typename
  }
}
`

	QueryCurrentClass = `
query CurrentClass($slugId: String!, $isStudent: Boolean!) {
  currentClass: getCourseClassBySlugId(slugId: $slugId) {
    id
    classCode
    slugId
    degreeLevel
    startDate
    endDate
    description
    name
    stage
    modality
    modifiedDate
    credits
    courseCode
    version
    lastPublishedDate
    sectionId
    holidays {
      id
      active
      description
      duration
      startDate
      title
      __typename
    }
    students {
      courseClassId
      createdDate
      modifiedDate
      id
      isHonors
      isAccommodated
      user {
        id
        username
        firstName
        lastName
        preferredFirstName
        sourceId
        userImgUrl
        lastLogin
        isAccommodated
        userStatus
        socialContacts {
          id
          value
          socialContactType
          __typename
        }
        __typename
      }
      baseRoleName
      roleName
      status
      userId
      __typename
    }
    participationPolicy {
      description
      id
      numDays
      numPosts
      __typename
    }
    gradeScale {
      id
      entries {
        id
        label
        minPercent
        maxPercent
        minPoints
        maxPoints
        type
        __typename
      }
      __typename
    }
    instructors {
      id
      createdDate
      modifiedDate
      user {
        id
        firstName
        lastName
        preferredFirstName
        username
        sourceId
        userImgUrl
        userStatus
        lastLogin
        socialContacts {
          id
          value
          socialContactType
          __typename
        }
        __typename
      }
      baseRoleName
      roleName
      status
      userId
      __typename
    }
    units {
      id
      title
      sequence
      startDate
      endDate
      current
      points
      description
      assessments {
        id
        sequence
        title
        description
        startDate
        dueDate
        accommodatedDueDate @skip(if: $isStudent)
        exemptAccommodations
        showAccommodatedTrait
        points
        type
        tags
        requiresLopesWrite
        isGroupEnabled
        inPerson
        rubric {
          id
          name
          __typename
        }
        attachments {
          id
          resourceId
          title
          __typename
        }
        ltiParameters {
          id
          key
          value
          __typename
        }
        __typename
      }
      __typename
    }
    __typename
  }
}
`
)

// Grading queries.
const QueryGradeOverview = `
query GradeOverview($courseClassSlugId: String!, $courseClassUserIds: [String]) {
  gradeOverview: getAllClassGrades(
    courseClassSlugId: $courseClassSlugId
    courseClassUserIds: $courseClassUserIds
  ) {
    finalGrade {
      id
      finalPoints
      gradeValue
      isPublished
      maxPoints
      __typename
    }
    grades {
      isEverReassigned
      userLastSeenDate
      assignmentSubmission {
        id
        submissionDate
        __typename
      }
      assessment {
        id
        title
        points
        type
        dueDate
        __typename
      }
      post {
        id
        forumId
        publishDate
        __typename
      }
      assessmentGroup {
        groupUsers {
          user {
            id
            __typename
          }
          __typename
        }
        status
        __typename
      }
      dueDate
      accommodatedDueDate
      finalComment {
        comment
        commentResources {
          resource {
            id
            kind
            name
            type
            active
            context
            description
            embedReady
            __typename
          }
          __typename
        }
        __typename
      }
      finalPoints
      id
      status
      userQuizAssessment {
        accommodatedDuration
        dueTime
        duration
        startTime
        submissionDate
        userQuizId
        __typename
      }
      history {
        comment
        dueDate
        status
        __typename
      }
      __typename
    }
    __typename
  }
}
`

// Forum, discussion, and announcement queries.
const (
	QueryAllDQForCourseClass = `
query AllDQForCourseClass($courseClassId: String!, $sortBy: String, $pgNum: Int, $pgSize: Int) {
  allDQForCourseClass: getAllDQForCourseClass(
    courseClassId: $courseClassId
    sortBy: $sortBy
    pgNum: $pgNum
    pgSize: $pgSize
  ) {
    contextId
    forumId
    forumType
    courseClassId
    totalPosts
    title
    description
    startDate
    dueDate
    active
    description
    reassignedDueDate
    resources {
      active
      context
      description
      embedReady
      id
      kind
      name
      type
      __typename
    }
    __typename
  }
}
`

	QueryDiscussionForumPosts = `
query getDiscussionForumPosts($forumId: String, $postId: String, $depthStart: Int, $depthEnd: Int, $dqPostFilters: [DQPostFilter]) {
  Posts: posts(
    forumId: $forumId
    postId: $postId
    depthStart: $depthStart
    depthEnd: $depthEnd
    dqPostFilters: $dqPostFilters
  ) {
    forumId
    content
    id
    originalPostId
    rootParentId
    postStatus
    parentPostId
    hasChildren
    postTags {
      tag
      __typename
    }
    publishDate
    modifiedDate
    createdBy {
      id
      userId
      baseRoleName
      user {
        id
        firstName
        preferredFirstName
        lastName
        userStatus
        userImgUrl
        __typename
      }
      __typename
    }
    resources {
      id
      kind
      name
      type
      active
      context
      description
      embedReady
      __typename
    }
    isAcknowledge
    flagType
    countOfAcknowledgements
    replies {
      forumId
      content
      id
      originalPostId
      postStatus
      parentPostId
      publishDate
      modifiedDate
      createdBy {
        id
        userId
        baseRoleName
        user {
          id
          firstName
          lastName
          __typename
        }
        __typename
      }
      __typename
    }
    __typename
  }
}
`

	QueryForumNotifications = `
query GetForumNotifications($classId: String!, $filters: FilterInputGQL) {
  classes: getForumNotifications(classId: $classId, filter: $filters) {
    forumTypes {
      ANNOUNCEMENTS {
        classes {
          classId
          count
          forums {
            count
            forumId
            posts
            __typename
          }
          __typename
        }
        __typename
      }
      CQ {
        classes {
          classId
          count
          forums {
            count
            forumId
            posts
            __typename
          }
          __typename
        }
        __typename
      }
      DQ {
        classes {
          classId
          count
          forums {
            count
            forumId
            posts
            __typename
          }
          __typename
        }
        __typename
      }
      IDQ {
        classes {
          classId
          count
          forums {
            count
            forumId
            posts
            __typename
          }
          __typename
        }
        __typename
      }
      INBOX {
        classes {
          classId
          count
          forums {
            count
            forumId
            posts
            __typename
          }
          __typename
        }
        count
        __typename
      }
      GROUP {
        classes {
          classId
          count
          forums {
            count
            forumId
            posts
            __typename
          }
          __typename
        }
        count
        __typename
      }
      __typename
    }
    __typename
  }
}
`

	QueryAnnouncementsStudent = `
query GetAnnouncementsStudent($courseClassId: String!) {
  announcements(courseClassId: $courseClassId) {
    contextId
    courseClassId
    dueDate
    forumId
    forumType
    lastPost {
      isReplied
      __typename
    }
    startDate
    endDate
    title
    posts {
      content
      expiryDate
      forumId
      forumTitle
      id
      isAcknowledge
      modifiedDate
      originalPostId
      parentPostId
      postStatus
      publishDate
      startDate
      tenantId
      title
      postFlagAcknowledgements {
        acknowledge
        acknowledgedTimestamp
        userId
        __typename
      }
      postTags {
        tag
        __typename
      }
      createdBy {
        id
        user {
          id
          firstName
          lastName
          preferredFirstName
          userImgUrl
          __typename
        }
        __typename
      }
      resources {
        kind
        name
        id
        description
        type
        active
        context
        embedReady
        __typename
      }
      __typename
    }
    __typename
  }
}
`
)

// Inbox queries.
const (
	QueryInboxLeftPanel = `
query GetInboxLeftPanel {
  getInboxLeftPanel: getInboxLeftPanel {
    courseClassId
    unansweredCount
    forums {
      forumId
      forumType
      courseClassId
      startDate
      endDate
      contextId
      lastPost {
        isReplied
        recipient {
          id
          userStatus
          firstName
          lastName
          preferredFirstName
          userImgUrl
          __typename
        }
        post {
          content
          createdBy {
            baseRoleName
            courseClassId
            id
            roleName
            status
            userId
            user {
              id
              userStatus
              firstName
              lastName
              preferredFirstName
              userImgUrl
              __typename
            }
            __typename
          }
          expiryDate
          id
          parentPostId
          postStatus
          publishDate
          resources {
            id
            kind
            name
            type
            active
            context
            description
            embedReady
            __typename
          }
          wordCount
          __typename
        }
        __typename
      }
      posts {
        content
        createdBy {
          baseRoleName
          courseClassId
          id
          roleName
          status
          userId
          user {
            id
            userStatus
            firstName
            lastName
            preferredFirstName
            userImgUrl
            __typename
          }
          __typename
        }
        expiryDate
        id
        parentPostId
        postStatus
        publishDate
        resources {
          id
          kind
          name
          type
          active
          context
          description
          embedReady
          __typename
        }
        wordCount
        __typename
      }
      __typename
    }
    __typename
  }
}
`

	QueryInboxNotifications = `
query GetInboxNotifications($fetchCounts: Boolean) {
  classes: getInboxNotifications(fetchCounts: $fetchCounts) {
    forumTypes {
      INBOX {
        classes {
          classId
          count
          forums {
            count
            forumId
            posts
            __typename
          }
          __typename
        }
        count
        __typename
      }
      __typename
    }
    __typename
  }
}
`

	QueryPostsByInboxForumID = `
query getPostsByInboxForumId($forumId: String, $pgNum: Int, $pgSize: Int) {
  getPostsForInboxForum: getPostsForInboxForum(
    forumId: $forumId
    pgNum: $pgNum
    pgSize: $pgSize
  ) {
    content
    createdBy {
      baseRoleName
      courseClassId
      id
      roleName
      status
      userId
      user {
        id
        userStatus
        firstName
        lastName
        preferredFirstName
        userImgUrl
        __typename
      }
      __typename
    }
    expiryDate
    id
    isAcknowledge
    parentPostId
    postStatus
    publishDate
    resources {
      id
      kind
      name
      type
      active
      context
      description
      embedReady
      __typename
    }
    wordCount
    postFlagAcknowledgements {
      acknowledge
      userId
      __typename
    }
    postTags {
      tag
      __typename
    }
    __typename
  }
}
`
)

// User queries.
const QueryUserByID = `
query getUserById($userId: String!) {
  getUserById(id: $userId) {
    id
    firstName
    lastName
    preferredFirstName
    userImgUrl
    userAccessGroups {
      accessGroup
      __typename
    }
    sourceId
    __typename
  }
}
`

// Assignment submission queries and mutations.
const (
	QueryCourseClassAssessment = `
query CourseClassAssessment($assessmentId: String!) {
  assessment: getCourseClassAssessmentById(id: $assessmentId) {
    id
    title
    description
    startDate
    dueDate
    points
    requiresLopesWrite
    isGroupEnabled
    type
    attachments {
      id
      resourceId
      title
      __typename
    }
    __typename
  }
}
`

	QueryAssignmentSubmission = `
query AssignmentSubmission($courseClassAssessmentId: String!) {
  assignmentSubmission: getUserAssignmentSubmissionForAssessment(
    courseClassAssessmentId: $courseClassAssessmentId
  ) {
    id
    status
    dueDate
    submissionDate
    resources {
      id
      isFinal
      similarityReportStatusEnum
      similarityScore
      uploadDate
      resource {
        id
        name
        kind
        type
        __typename
      }
      __typename
    }
    __typename
  }
}
`

	MutationBulkAssignmentResource = `
mutation BulkAssignmentResource(
  $courseClassAssessmentId: String!,
  $resourceIds: [String]!
) {
  bulkAddAssignmentSubmissionResource(
    courseClassAssessmentId: $courseClassAssessmentId
    resourceIds: $resourceIds
  ) {
    id
    status
    dueDate
    submissionDate
    resources {
      id
      isFinal
      similarityReportStatusEnum
      similarityScore
      uploadDate
      resource {
        id
        name
        kind
        type
        __typename
      }
      __typename
    }
    __typename
  }
}
`
)
